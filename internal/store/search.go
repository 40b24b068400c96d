package store

// search.go provides the full-text query and the raw SQL escape hatch.

import (
	"context"
	"database/sql"
)

// SearchHit is the indexed projection of a record: the three human-readable
// columns the full-text table carries.
type SearchHit struct {
	Name        *string `json:"name"`
	PASEName    string  `json:"pase_name"`
	Description string  `json:"description"`
}

// Search runs an FTS5 MATCH over name, pase_name, and description.
//
// Matching follows the default unicode61 tokenizer: bare terms match whole
// words case-insensitively, `term*` matches prefixes, multiple terms are
// implicitly ANDed. An invalid query expression surfaces as ErrQuerySyntax.
func (s *Store) Search(ctx context.Context, query string) ([]SearchHit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, pase_name, description
		FROM landholders_fts
		WHERE landholders_fts MATCH ?
		ORDER BY rank`, query)
	if err != nil {
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var name sql.NullString
		if err := rows.Scan(&name, &h.PASEName, &h.Description); err != nil {
			return nil, err
		}
		if name.Valid {
			h.Name = &name.String
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// QueryResult holds a materialized result set from the SQL escape hatch.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query runs an arbitrary read query against the database and materializes
// the result. This is the analyst's escape hatch: the primary table, the FTS
// table, and the imports log are all reachable. Invalid SQL is reported as
// ErrQuerySyntax.
func (s *Store) Query(ctx context.Context, sqlText string, args ...any) (*QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// The driver hands back []byte for TEXT columns; convert so results
		// marshal as strings rather than base64.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	return res, rows.Err()
}
