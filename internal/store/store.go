// Package store persists landholder records in a single-file SQLite
// database with a parallel full-text index, and exposes the query surfaces
// the analysis tooling is built on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/opendomesday/domesday/internal/analysis"
	"github.com/opendomesday/domesday/internal/record"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// DBTX is the interface for database operations.
// Satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Store is a landholder database bound to a single file.
//
// It is safe for concurrent reads; concurrent writers are not supported
// beyond SQLite's own single-writer locking.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema exists.
// Failures to open or create are fatal and wrapped in ErrUnavailable.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	// The sqlite driver opens lazily; ping forces file creation so a bad
	// path fails here instead of on first use.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrUnavailable, err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Begin starts a transaction. The loader runs one per source file so the
// primary table, the FTS index, and the import audit row commit together.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

var upsertSQL = fmt.Sprintf(
	`INSERT INTO landholders (%s) VALUES (%s)
	ON CONFLICT(pase_name) DO UPDATE SET
		name = excluded.name,
		gender = excluded.gender,
		description = excluded.description,
		holder_1066 = excluded.holder_1066,
		lord_1066 = excluded.lord_1066,
		demesne_1086 = excluded.demesne_1086,
		subtenanted_1086 = excluded.subtenanted_1086,
		subtenant_1086 = excluded.subtenant_1086,
		editor = excluded.editor,
		editorial_status = excluded.editorial_status`,
	strings.Join(record.Columns(), ", "),
	strings.TrimSuffix(strings.Repeat("?, ", len(record.Columns())), ", "),
)

// Upsert inserts or replaces a record keyed on pase_name and refreshes its
// full-text index entry. Both writes happen on db, which may be a
// transaction; re-importing the same identifier replaces, never duplicates.
func (s *Store) Upsert(ctx context.Context, db DBTX, lh record.Landholder) error {
	if _, err := db.ExecContext(ctx, upsertSQL, lh.Values()...); err != nil {
		return fmt.Errorf("upsert %q: %w", lh.PASEName, err)
	}

	var rowid int64
	err := db.QueryRowContext(ctx,
		`SELECT rowid FROM landholders WHERE pase_name = ?`, lh.PASEName,
	).Scan(&rowid)
	if err != nil {
		return fmt.Errorf("upsert %q: resolving rowid: %w", lh.PASEName, err)
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM landholders_fts WHERE rowid = ?`, rowid); err != nil {
		return fmt.Errorf("upsert %q: clearing index entry: %w", lh.PASEName, err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO landholders_fts (rowid, name, pase_name, description) VALUES (?, ?, ?, ?)`,
		rowid, lh.Name, lh.PASEName, lh.Description); err != nil {
		return fmt.Errorf("upsert %q: indexing: %w", lh.PASEName, err)
	}

	return nil
}

// Get returns a single record by its pase_name.
func (s *Store) Get(ctx context.Context, paseName string) (record.Landholder, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM landholders WHERE pase_name = ?`,
		strings.Join(record.Columns(), ", ")), paseName)
	if err != nil {
		return record.Landholder{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return record.Landholder{}, err
		}
		return record.Landholder{}, fmt.Errorf("%w: %q", ErrNotFound, paseName)
	}
	return scanLandholder(rows)
}

// Count returns the number of records in the primary table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM landholders`).Scan(&n)
	return n, err
}

// ListOptions narrows and orders a listing of the primary table.
type ListOptions struct {
	Gender  string // exact match on the gender column when non-empty
	OrderBy string // canonical column name; defaults to pase_name
	Desc    bool
	Limit   uint64 // 0 means no limit
	Offset  uint64
}

// List returns records filtered and ordered per opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]record.Landholder, error) {
	orderBy := "pase_name"
	if opts.OrderBy != "" {
		if !validColumn(opts.OrderBy) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrQuerySyntax, opts.OrderBy)
		}
		orderBy = opts.OrderBy
	}
	dir := " ASC"
	if opts.Desc {
		dir = " DESC"
	}

	q := sq.Select(record.Columns()...).
		From("landholders").
		OrderBy(orderBy + dir)
	if opts.Gender != "" {
		q = q.Where(sq.Eq{"gender": opts.Gender})
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit).Offset(opts.Offset)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.Landholder
	for rows.Next() {
		lh, err := scanLandholder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lh)
	}
	return out, rows.Err()
}

// Export reads the whole primary table into a column-oriented frame, rows in
// insertion order, columns in canonical field order.
func (s *Store) Export(ctx context.Context) (*analysis.Frame, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM landholders ORDER BY rowid`,
		strings.Join(record.Columns(), ", ")))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	frame := analysis.NewFrame()
	for rows.Next() {
		lh, err := scanLandholder(rows)
		if err != nil {
			return nil, err
		}
		frame.Append(lh)
	}
	return frame, rows.Err()
}

// scanLandholder reads one row in canonical column order, converting the
// TEXT hide columns back to exact decimals.
func scanLandholder(rows *sql.Rows) (record.Landholder, error) {
	var lh record.Landholder
	var hides [5]string
	err := rows.Scan(
		&lh.Name, &lh.Gender, &lh.PASEName, &lh.Description,
		&hides[0], &hides[1], &hides[2], &hides[3], &hides[4],
		&lh.Editor, &lh.EditorialStatus,
	)
	if err != nil {
		return lh, err
	}

	dst := []*decimal.Decimal{
		&lh.Holder1066, &lh.Lord1066, &lh.Demesne1086,
		&lh.Subtenanted1086, &lh.Subtenant1086,
	}
	for i, raw := range hides {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return lh, fmt.Errorf("record %q: corrupt hide value %q: %w", lh.PASEName, raw, err)
		}
		*dst[i] = d
	}
	return lh, nil
}

func validColumn(name string) bool {
	for _, c := range record.Columns() {
		if c == name {
			return true
		}
	}
	return false
}
