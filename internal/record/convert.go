package record

// convert.go provides cell-level cleaning and type coercion for CSV data.
//
// These functions handle the messy reality of the source export:
//   - Currency symbols and thousand separators in hide values
//   - Pseudo-null strings ("null", "undefined") in nullable columns
//   - Typographic quotation marks in descriptions
//   - Excel formula prefixes (="value") and stray quotes

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedRow reports a row that cannot be coerced to the record schema,
// either structurally or because a hide value does not parse.
var ErrMalformedRow = errors.New("malformed row")

// ErrMissingIdentifier reports a row whose pase_name is empty after cleaning.
var ErrMissingIdentifier = errors.New("missing identifier")

// numericRegex validates that a string is a valid numeric format after
// currency cleanup. Matches integers and decimals, no exponents.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// quoteReplacer converts typographic quotation marks to vertical ones.
var quoteReplacer = strings.NewReplacer("‘", "'", "’", "'")

// ParseHides converts currency-formatted text to an exact decimal value.
// It strips currency symbols, thousands separators, and accounting
// parentheses. Empty input yields zero: absent hide values mean the person
// held no assessed land, not unknown.
func ParseHides(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	// Accounting format "(123.45)" means negative
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, errors.New("not a numeric value")
	}

	return decimal.NewFromString(s)
}

// NullableText cleans a cell and maps pseudo-null values to SQL NULL.
// The source export uses "null" and "undefined" interchangeably with empty.
func NullableText(s string) sql.NullString {
	s = CleanCell(s)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// CleanDescription trims surrounding spaces and quotes from a description
// and converts typographic quotation marks to vertical ones.
func CleanDescription(s string) string {
	return quoteReplacer.Replace(strings.Trim(s, ` "`))
}

// CollapseSpaces reduces internal whitespace runs to single spaces.
// PASE names occasionally carry doubled spaces from the export.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanCell removes common CSV artifacts from a cell value:
// whitespace, Excel formula prefixes (="..."), and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased and spaces become underscores, so "PASE Name" and
// "pase_name" both match.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		idx[strings.ReplaceAll(key, " ", "_")] = i
	}
	return idx
}

// IsHeader reports whether a CSV row looks like the column header row rather
// than data. The identifier column name is distinctive enough to decide.
func IsHeader(row []string) bool {
	idx := MakeHeaderIndex(row)
	_, ok := idx["pase_name"]
	return ok
}
