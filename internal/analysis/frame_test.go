package analysis

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/opendomesday/domesday/internal/record"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleFrame() *Frame {
	f := NewFrame()
	f.Append(record.Landholder{
		Name:            sql.NullString{String: "Edward", Valid: true},
		Gender:          sql.NullString{String: "Male", Valid: true},
		PASEName:        "Edward 15",
		Description:     "king of England",
		Holder1066:      dec("8230.05"),
		Lord1066:        dec("6924.1"),
		EditorialStatus: "2 of 5",
	})
	f.Append(record.Landholder{
		Name:            sql.NullString{String: "Godgifu", Valid: true},
		Gender:          sql.NullString{String: "Female", Valid: true},
		PASEName:        "Godgifu 2",
		Description:     "countess",
		Holder1066:      dec("269.95"),
		Lord1066:        dec("75.9"),
		EditorialStatus: "1 of 5",
	})
	f.Append(record.Landholder{
		Name:            sql.NullString{String: "Godric", Valid: true},
		Gender:          sql.NullString{String: "Male", Valid: true},
		PASEName:        "Godric 57",
		Description:     "thegn of Berkshire",
		Holder1066:      dec("12.5"),
		EditorialStatus: "1 of 5",
	})
	return f
}

func TestAggregates(t *testing.T) {
	aggs := sampleFrame().Aggregates()
	if len(aggs) != 5 {
		t.Fatalf("Aggregates() returned %d columns, want 5", len(aggs))
	}

	holder := aggs[0]
	if holder.Column != "holder_1066" {
		t.Fatalf("first aggregate column = %q, want holder_1066", holder.Column)
	}
	if got := holder.Sum.String(); got != "8512.5" {
		t.Errorf("holder_1066 sum = %s, want 8512.5", got)
	}
	if got := holder.Mean.String(); got != "2837.5" {
		t.Errorf("holder_1066 mean = %s, want 2837.5", got)
	}
	if got := holder.Min.String(); got != "12.5" {
		t.Errorf("holder_1066 min = %s, want 12.5", got)
	}
	if got := holder.Max.String(); got != "8230.05" {
		t.Errorf("holder_1066 max = %s, want 8230.05", got)
	}
	if holder.Count != 3 {
		t.Errorf("holder_1066 count = %d, want 3", holder.Count)
	}

	lord := aggs[1]
	if got := lord.Sum.String(); got != "7000" {
		t.Errorf("lord_1066 sum = %s, want 7000", got)
	}
}

func TestAggregates_Empty(t *testing.T) {
	for _, agg := range NewFrame().Aggregates() {
		if agg.Count != 0 || !agg.Sum.IsZero() || !agg.Mean.IsZero() {
			t.Errorf("empty frame aggregate %q = %+v, want zeros", agg.Column, agg)
		}
	}
}

func TestFilterGender(t *testing.T) {
	males := sampleFrame().FilterGender("Male")
	if males.Len() != 2 {
		t.Fatalf("FilterGender(Male).Len() = %d, want 2", males.Len())
	}
	if males.PASEName[0] != "Edward 15" || males.PASEName[1] != "Godric 57" {
		t.Errorf("FilterGender kept %v", males.PASEName)
	}

	if got := sampleFrame().FilterGender("Unknown").Len(); got != 0 {
		t.Errorf("FilterGender(Unknown).Len() = %d, want 0", got)
	}
}

func TestSortBy(t *testing.T) {
	byHolder, err := sampleFrame().SortBy("holder_1066", false)
	if err != nil {
		t.Fatalf("SortBy(holder_1066): %v", err)
	}
	if byHolder.PASEName[0] != "Godric 57" || byHolder.PASEName[2] != "Edward 15" {
		t.Errorf("numeric ascending order = %v", byHolder.PASEName)
	}

	byName, err := sampleFrame().SortBy("pase_name", true)
	if err != nil {
		t.Fatalf("SortBy(pase_name): %v", err)
	}
	if byName.PASEName[0] != "Godric 57" {
		t.Errorf("lexical descending order = %v", byName.PASEName)
	}

	if _, err := sampleFrame().SortBy("nonsense", false); err == nil {
		t.Error("SortBy(nonsense) did not fail")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleFrame().WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("WriteCSV wrote %d lines, want header plus 3 rows", len(lines))
	}
	if lines[0] != strings.Join(record.Columns(), ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Edward 15") || !strings.Contains(lines[1], "8230.05") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestRow_FieldOrder(t *testing.T) {
	row := sampleFrame().Row(0)
	if len(row) != len(record.Columns()) {
		t.Fatalf("Row(0) has %d cells, want %d", len(row), len(record.Columns()))
	}
	if row[2] != "Edward 15" {
		t.Errorf("pase_name cell = %q", row[2])
	}
	if row[4] != "8230.05" || row[5] != "6924.1" {
		t.Errorf("hide cells = %q %q", row[4], row[5])
	}
}
