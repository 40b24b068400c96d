package store

// imports.go records load runs in an audit table so an analyst can see when
// each source file was brought in and how many rows survived.

import (
	"context"
	"time"
)

// ImportRecord is one audit entry for a completed load.
type ImportRecord struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	TotalRows int           `json:"total_rows"`
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RecordImport writes an audit entry. The loader calls it on the same
// transaction as the row upserts so the log never claims a load that did not
// commit.
func (s *Store) RecordImport(ctx context.Context, db DBTX, rec ImportRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO imports (id, source, total_rows, imported, skipped, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.TotalRows, rec.Imported, rec.Skipped,
		rec.StartedAt.UTC().Format(time.RFC3339), rec.Duration.Milliseconds(),
	)
	return err
}

// Imports returns the audit log, most recent first.
func (s *Store) Imports(ctx context.Context) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, total_rows, imported, skipped, started_at, duration_ms
		FROM imports ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var started string
		var durMS int64
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.TotalRows, &rec.Imported,
			&rec.Skipped, &started, &durMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			rec.StartedAt = t
		}
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
