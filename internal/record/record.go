// Package record defines the typed landholder record and the parsing and
// cleaning rules that turn raw CSV cells into typed fields.
// This package has no storage dependencies and can be used by any frontend.
package record

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldHides
)

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name     string    // Column header name (also the database column name)
	Type     FieldType // Expected data type
	Nullable bool      // Null-ish values become SQL NULL instead of empty text
	Required bool      // Value must be non-empty after cleaning
}

// Fields lists the landholder columns in canonical order. This is the column
// order of the source export, the database table, and the bulk export.
var Fields = []FieldSpec{
	{Name: "name", Type: FieldText, Nullable: true},
	{Name: "gender", Type: FieldText, Nullable: true},
	{Name: "pase_name", Type: FieldText, Required: true},
	{Name: "description", Type: FieldText},
	{Name: "holder_1066", Type: FieldHides},
	{Name: "lord_1066", Type: FieldHides},
	{Name: "demesne_1086", Type: FieldHides},
	{Name: "subtenanted_1086", Type: FieldHides},
	{Name: "subtenant_1086", Type: FieldHides},
	{Name: "editor", Type: FieldText, Nullable: true},
	{Name: "editorial_status", Type: FieldText},
}

// Columns returns the canonical column names in field order.
func Columns() []string {
	cols := make([]string, len(Fields))
	for i, f := range Fields {
		cols[i] = f.Name
	}
	return cols
}

// Landholder is one entry in the PASE Domesday database.
//
// The decimal fields are the total taxable value, in hides, of estates held
// in whole or part by this person at the two survey dates. They are exact
// decimals and never null; absent source values default to zero.
type Landholder struct {
	Name            sql.NullString
	Gender          sql.NullString
	PASEName        string
	Description     string
	Holder1066      decimal.Decimal
	Lord1066        decimal.Decimal
	Demesne1086     decimal.Decimal
	Subtenanted1086 decimal.Decimal
	Subtenant1086   decimal.Decimal
	Editor          sql.NullString
	EditorialStatus string
}

// FromRow builds a Landholder from a CSV row in canonical column order.
// The row is repaired first if it carries extra fields (stray commas in the
// description), then each cell is cleaned and coerced to its declared type.
func FromRow(row []string) (Landholder, error) {
	row, err := RepairRow(row)
	if err != nil {
		return Landholder{}, err
	}

	lh := Landholder{
		Name:            NullableText(row[0]),
		Gender:          NullableText(row[1]),
		PASEName:        CollapseSpaces(CleanCell(row[2])),
		Description:     CleanDescription(row[3]),
		Editor:          NullableText(row[9]),
		EditorialStatus: CleanCell(row[10]),
	}

	if lh.PASEName == "" {
		return Landholder{}, ErrMissingIdentifier
	}

	hides := []*decimal.Decimal{
		&lh.Holder1066, &lh.Lord1066, &lh.Demesne1086,
		&lh.Subtenanted1086, &lh.Subtenant1086,
	}
	for i, dst := range hides {
		col := Fields[4+i]
		v, err := ParseHides(row[4+i])
		if err != nil {
			return Landholder{}, fmt.Errorf("%w: column %q: %v", ErrMalformedRow, col.Name, err)
		}
		*dst = v
	}

	return lh, nil
}

// RepairRow normalizes a raw row to the canonical field count.
//
// Some source rows carry a misplaced comma inside the description, which
// splits it across several fields. The description sits between three leading
// and seven trailing columns, so the middle fields are rejoined.
func RepairRow(row []string) ([]string, error) {
	n := len(Fields)
	if len(row) < n {
		return nil, fmt.Errorf("%w: %d columns, expected %d", ErrMalformedRow, len(row), n)
	}
	if len(row) == n {
		return row, nil
	}
	repaired := make([]string, 0, n)
	repaired = append(repaired, row[:3]...)
	repaired = append(repaired, joinFields(row[3:len(row)-7]))
	repaired = append(repaired, row[len(row)-7:]...)
	return repaired, nil
}

func joinFields(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}

// Values returns the record's fields in canonical column order, typed for
// database binding. Decimal fields are rendered as exact strings so the
// store never passes them through floating point.
func (l Landholder) Values() []any {
	return []any{
		l.Name,
		l.Gender,
		l.PASEName,
		l.Description,
		l.Holder1066.String(),
		l.Lord1066.String(),
		l.Demesne1086.String(),
		l.Subtenanted1086.String(),
		l.Subtenant1086.String(),
		l.Editor,
		l.EditorialStatus,
	}
}

// Hides returns the five decimal fields in column order.
func (l Landholder) Hides() []decimal.Decimal {
	return []decimal.Decimal{
		l.Holder1066, l.Lord1066, l.Demesne1086, l.Subtenanted1086, l.Subtenant1086,
	}
}
