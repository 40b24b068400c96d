// Package analysis provides a column-oriented in-memory view of the
// landholder table for aggregate work: grouping, filtering, sorting, and
// exact decimal statistics over the hide columns.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/opendomesday/domesday/internal/record"
	"github.com/shopspring/decimal"
)

// Frame holds all records as typed columns in canonical field order.
// Nullable text columns carry the empty string for NULL; hide columns are
// exact decimals throughout, so sums do not drift.
type Frame struct {
	Name            []string
	Gender          []string
	PASEName        []string
	Description     []string
	Holder1066      []decimal.Decimal
	Lord1066        []decimal.Decimal
	Demesne1086     []decimal.Decimal
	Subtenanted1086 []decimal.Decimal
	Subtenant1086   []decimal.Decimal
	Editor          []string
	EditorialStatus []string
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.PASEName)
}

// Columns returns the column names in field order.
func (f *Frame) Columns() []string {
	return record.Columns()
}

// Append adds one record as a new row.
func (f *Frame) Append(lh record.Landholder) {
	f.Name = append(f.Name, lh.Name.String)
	f.Gender = append(f.Gender, lh.Gender.String)
	f.PASEName = append(f.PASEName, lh.PASEName)
	f.Description = append(f.Description, lh.Description)
	f.Holder1066 = append(f.Holder1066, lh.Holder1066)
	f.Lord1066 = append(f.Lord1066, lh.Lord1066)
	f.Demesne1086 = append(f.Demesne1086, lh.Demesne1086)
	f.Subtenanted1086 = append(f.Subtenanted1086, lh.Subtenanted1086)
	f.Subtenant1086 = append(f.Subtenant1086, lh.Subtenant1086)
	f.Editor = append(f.Editor, lh.Editor.String)
	f.EditorialStatus = append(f.EditorialStatus, lh.EditorialStatus)
}

// Row returns row i as string cells in field order.
func (f *Frame) Row(i int) []string {
	return []string{
		f.Name[i], f.Gender[i], f.PASEName[i], f.Description[i],
		f.Holder1066[i].String(), f.Lord1066[i].String(),
		f.Demesne1086[i].String(), f.Subtenanted1086[i].String(),
		f.Subtenant1086[i].String(),
		f.Editor[i], f.EditorialStatus[i],
	}
}

// Aggregate holds exact decimal statistics for one hide column.
type Aggregate struct {
	Column string          `json:"column"`
	Sum    decimal.Decimal `json:"sum"`
	Mean   decimal.Decimal `json:"mean"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Count  int             `json:"count"`
}

// hideColumns returns the five decimal columns keyed by canonical name,
// in field order.
func (f *Frame) hideColumns() []struct {
	name   string
	values []decimal.Decimal
} {
	return []struct {
		name   string
		values []decimal.Decimal
	}{
		{"holder_1066", f.Holder1066},
		{"lord_1066", f.Lord1066},
		{"demesne_1086", f.Demesne1086},
		{"subtenanted_1086", f.Subtenanted1086},
		{"subtenant_1086", f.Subtenant1086},
	}
}

// Aggregates computes Sum/Mean/Min/Max/Count for each hide column.
// Mean is rounded to four places; everything else is exact.
func (f *Frame) Aggregates() []Aggregate {
	out := make([]Aggregate, 0, 5)
	for _, col := range f.hideColumns() {
		agg := Aggregate{Column: col.name, Count: len(col.values)}
		for i, v := range col.values {
			agg.Sum = agg.Sum.Add(v)
			if i == 0 {
				agg.Min, agg.Max = v, v
				continue
			}
			if v.LessThan(agg.Min) {
				agg.Min = v
			}
			if v.GreaterThan(agg.Max) {
				agg.Max = v
			}
		}
		if agg.Count > 0 {
			agg.Mean = agg.Sum.DivRound(decimal.NewFromInt(int64(agg.Count)), 4)
		}
		out = append(out, agg)
	}
	return out
}

// FilterGender returns a new frame holding only rows with the given gender.
func (f *Frame) FilterGender(gender string) *Frame {
	out := NewFrame()
	for i := 0; i < f.Len(); i++ {
		if f.Gender[i] == gender {
			out.appendRow(f, i)
		}
	}
	return out
}

// SortBy returns a new frame sorted on the named column, descending if desc.
// Text columns sort lexically, hide columns numerically.
func (f *Frame) SortBy(column string, desc bool) (*Frame, error) {
	less, err := f.lessFunc(column)
	if err != nil {
		return nil, err
	}

	perm := make([]int, f.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		if desc {
			return less(perm[b], perm[a])
		}
		return less(perm[a], perm[b])
	})

	out := NewFrame()
	for _, i := range perm {
		out.appendRow(f, i)
	}
	return out, nil
}

func (f *Frame) lessFunc(column string) (func(i, j int) bool, error) {
	textCols := map[string][]string{
		"name":             f.Name,
		"gender":           f.Gender,
		"pase_name":        f.PASEName,
		"description":      f.Description,
		"editor":           f.Editor,
		"editorial_status": f.EditorialStatus,
	}
	if col, ok := textCols[column]; ok {
		return func(i, j int) bool { return col[i] < col[j] }, nil
	}
	for _, hc := range f.hideColumns() {
		if hc.name == column {
			col := hc.values
			return func(i, j int) bool { return col[i].LessThan(col[j]) }, nil
		}
	}
	return nil, fmt.Errorf("unknown column %q", column)
}

// appendRow copies row i of src onto f.
func (f *Frame) appendRow(src *Frame, i int) {
	f.Name = append(f.Name, src.Name[i])
	f.Gender = append(f.Gender, src.Gender[i])
	f.PASEName = append(f.PASEName, src.PASEName[i])
	f.Description = append(f.Description, src.Description[i])
	f.Holder1066 = append(f.Holder1066, src.Holder1066[i])
	f.Lord1066 = append(f.Lord1066, src.Lord1066[i])
	f.Demesne1086 = append(f.Demesne1086, src.Demesne1086[i])
	f.Subtenanted1086 = append(f.Subtenanted1086, src.Subtenanted1086[i])
	f.Subtenant1086 = append(f.Subtenant1086, src.Subtenant1086[i])
	f.Editor = append(f.Editor, src.Editor[i])
	f.EditorialStatus = append(f.EditorialStatus, src.EditorialStatus[i])
}

// WriteCSV writes the frame with a header row, for handoff to external
// tooling.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns()); err != nil {
		return err
	}
	for i := 0; i < f.Len(); i++ {
		if err := cw.Write(f.Row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
