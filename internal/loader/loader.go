// Package loader reads a landholders CSV export and upserts it into the
// store, one transaction per source file.
//
// Failure policy: a row that cannot be coerced (bad hide value, missing
// identifier, short row) is skipped and reported in the result; the rest of
// the file still imports. The primary table, the full-text index, and the
// import audit row commit together, so a partial import can never leave the
// index out of sync with the table.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opendomesday/domesday/internal/record"
	"github.com/opendomesday/domesday/internal/store"
)

// contextCheckInterval is how often (in rows) to check for cancellation.
// Checking every row is wasted work; every 100 is sub-millisecond apart.
const contextCheckInterval = 100

// FailedRow describes one rejected row.
type FailedRow struct {
	Record int      `json:"record"` // 1-based CSV record number, header included
	Reason string   `json:"reason"`
	Row    []string `json:"row"`
}

// Result is the outcome of one load run.
type Result struct {
	ImportID  string        `json:"import_id"`
	Source    string        `json:"source"`
	TotalRows int           `json:"total_rows"` // data rows seen, empty rows excluded
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	Failed    []FailedRow   `json:"failed,omitempty"`
	BytesRead int64         `json:"bytes_read"`
	Duration  time.Duration `json:"duration"`
}

// Loader imports CSV exports into a store.
type Loader struct {
	store *store.Store
	log   *slog.Logger
}

// New creates a Loader bound to st.
func New(st *store.Store) *Loader {
	return &Loader{store: st, log: slog.Default()}
}

// Load imports the CSV file at path. Re-running on the same file is
// idempotent: rows upsert on pase_name.
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	return l.LoadReader(ctx, filepath.Base(path), f)
}

// LoadReader imports CSV data from r, labelling the run with source in the
// import log.
//
// The first row may be a header: columns are then mapped by name,
// case-insensitively. Without a header (the raw PASE export has none)
// columns map positionally in canonical field order.
func (l *Loader) LoadReader(ctx context.Context, source string, r io.Reader) (*Result, error) {
	start := time.Now()
	counted := wrapForStreaming(r)

	cr := csv.NewReader(counted)
	cr.FieldsPerRecord = -1 // row repair handles ragged rows

	res := &Result{
		ImportID: uuid.NewString(),
		Source:   source,
	}
	log := l.log.With("import_id", res.ImportID, "source", source)

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	var reorder func([]string) ([]string, error)
	first := true
	recordNum := 0

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		recordNum++

		if recordNum%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("import cancelled at record %d: %w", recordNum, err)
			}
		}

		if first {
			first = false
			if record.IsHeader(row) {
				reorder, err = headerReorder(row)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", source, err)
				}
				continue
			}
		}

		if isEmptyRow(row) {
			continue
		}
		res.TotalRows++

		if reorder != nil {
			row, err = reorder(row)
			if err != nil {
				res.rowFailed(recordNum, err, row)
				continue
			}
		}

		lh, err := record.FromRow(row)
		if err != nil {
			res.rowFailed(recordNum, err, row)
			continue
		}

		if err := l.store.Upsert(ctx, tx, lh); err != nil {
			res.rowFailed(recordNum, err, row)
			continue
		}
		res.Imported++
	}

	res.BytesRead = counted.bytes
	res.Duration = time.Since(start)

	if err := l.store.RecordImport(ctx, tx, store.ImportRecord{
		ID:        res.ImportID,
		Source:    source,
		TotalRows: res.TotalRows,
		Imported:  res.Imported,
		Skipped:   res.Skipped,
		StartedAt: start,
		Duration:  res.Duration,
	}); err != nil {
		return nil, fmt.Errorf("recording import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	log.Info("import complete",
		"rows", res.TotalRows,
		"imported", res.Imported,
		"skipped", res.Skipped,
		"duration", res.Duration,
	)
	for _, f := range res.Failed {
		log.Warn("row skipped", "record", f.Record, "reason", f.Reason)
	}

	return res, nil
}

func (r *Result) rowFailed(recordNum int, err error, row []string) {
	r.Skipped++
	r.Failed = append(r.Failed, FailedRow{
		Record: recordNum,
		Reason: err.Error(),
		Row:    row,
	})
}

// headerReorder builds a function mapping a CSV row in header order to
// canonical field order. Every canonical column must appear in the header; a
// mismatched header fails the whole import rather than guessing.
func headerReorder(header []string) (func([]string) ([]string, error), error) {
	idx := record.MakeHeaderIndex(header)
	cols := record.Columns()

	positions := make([]int, len(cols))
	for i, col := range cols {
		pos, ok := idx[col]
		if !ok {
			return nil, fmt.Errorf("header is missing column %q", col)
		}
		positions[i] = pos
	}

	return func(row []string) ([]string, error) {
		out := make([]string, len(cols))
		for i, pos := range positions {
			if pos >= len(row) {
				return nil, fmt.Errorf("%w: %d columns, column %q expected at %d",
					record.ErrMalformedRow, len(row), cols[i], pos+1)
			}
			out[i] = row[pos]
		}
		return out, nil
	}, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
