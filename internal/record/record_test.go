package record

import (
	"errors"
	"strings"
	"testing"
)

// validRow returns a canonical 11-column row for one landholder.
func validRow() []string {
	return []string{
		"Edward", "Male", "Edward 15", "king of England",
		"£8,230.05", "6,924.10", "0", "", "0",
		"cpl", "2 of 5",
	}
}

func TestFromRow(t *testing.T) {
	lh, err := FromRow(validRow())
	if err != nil {
		t.Fatalf("FromRow() error = %v", err)
	}

	if lh.PASEName != "Edward 15" {
		t.Errorf("PASEName = %q, want %q", lh.PASEName, "Edward 15")
	}
	if !lh.Name.Valid || lh.Name.String != "Edward" {
		t.Errorf("Name = %+v, want valid %q", lh.Name, "Edward")
	}
	if got := lh.Holder1066.String(); got != "8230.05" {
		t.Errorf("Holder1066 = %s, want 8230.05", got)
	}
	if got := lh.Lord1066.String(); got != "6924.1" {
		t.Errorf("Lord1066 = %s, want 6924.1", got)
	}
	// Absent hide values default to zero, never null
	if !lh.Subtenanted1086.IsZero() {
		t.Errorf("Subtenanted1086 = %s, want 0", lh.Subtenanted1086)
	}
	if lh.EditorialStatus != "2 of 5" {
		t.Errorf("EditorialStatus = %q, want %q", lh.EditorialStatus, "2 of 5")
	}
}

func TestFromRow_NullableFields(t *testing.T) {
	row := validRow()
	row[0] = "null"
	row[1] = ""
	row[9] = "undefined"

	lh, err := FromRow(row)
	if err != nil {
		t.Fatalf("FromRow() error = %v", err)
	}

	if lh.Name.Valid {
		t.Errorf("Name = %+v, want NULL", lh.Name)
	}
	if lh.Gender.Valid {
		t.Errorf("Gender = %+v, want NULL", lh.Gender)
	}
	if lh.Editor.Valid {
		t.Errorf("Editor = %+v, want NULL", lh.Editor)
	}
}

func TestFromRow_CollapsesIdentifierSpaces(t *testing.T) {
	row := validRow()
	row[2] = "Edward   15"

	lh, err := FromRow(row)
	if err != nil {
		t.Fatalf("FromRow() error = %v", err)
	}
	if lh.PASEName != "Edward 15" {
		t.Errorf("PASEName = %q, want %q", lh.PASEName, "Edward 15")
	}
}

func TestFromRow_MissingIdentifier(t *testing.T) {
	row := validRow()
	row[2] = "  "

	_, err := FromRow(row)
	if !errors.Is(err, ErrMissingIdentifier) {
		t.Fatalf("FromRow() error = %v, want ErrMissingIdentifier", err)
	}
}

func TestFromRow_BadHideValue(t *testing.T) {
	row := validRow()
	row[4] = "not a number"

	_, err := FromRow(row)
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("FromRow() error = %v, want ErrMalformedRow", err)
	}
	if !strings.Contains(err.Error(), "holder_1066") {
		t.Errorf("error %q does not name the bad column", err)
	}
}

func TestRepairRow(t *testing.T) {
	// A stray comma in the description splits it into two fields.
	row := []string{
		"Thorkil", "Male", "Thorkil 92", "thegn", " of Warwickshire",
		"10", "0", "0", "0", "0",
		"cpl", "complete",
	}

	repaired, err := RepairRow(row)
	if err != nil {
		t.Fatalf("RepairRow() error = %v", err)
	}
	if len(repaired) != len(Fields) {
		t.Fatalf("RepairRow() returned %d columns, want %d", len(repaired), len(Fields))
	}
	if repaired[3] != "thegn, of Warwickshire" {
		t.Errorf("description = %q, want rejoined fields", repaired[3])
	}
	if repaired[10] != "complete" {
		t.Errorf("editorial_status = %q, want %q", repaired[10], "complete")
	}
}

func TestRepairRow_TooShort(t *testing.T) {
	_, err := RepairRow([]string{"a", "b", "c"})
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("RepairRow() error = %v, want ErrMalformedRow", err)
	}
}

func TestColumns(t *testing.T) {
	cols := Columns()
	if len(cols) != 11 {
		t.Fatalf("Columns() returned %d names, want 11", len(cols))
	}
	if cols[2] != "pase_name" {
		t.Errorf("Columns()[2] = %q, want pase_name", cols[2])
	}
	if cols[10] != "editorial_status" {
		t.Errorf("Columns()[10] = %q, want editorial_status", cols[10])
	}
}
