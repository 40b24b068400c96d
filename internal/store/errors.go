package store

// errors.go defines the store's error kinds and the single place where raw
// driver errors are classified. Handlers and the CLI match on these
// sentinels instead of parsing driver messages themselves.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable reports that the database file could not be opened or
	// created. Fatal: there is no retry layer.
	ErrUnavailable = errors.New("store unavailable")

	// ErrQuerySyntax reports that a caller-supplied SQL query is invalid.
	// Surfaced directly, not recovered.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrNotFound reports that no record matched the given identifier.
	ErrNotFound = errors.New("record not found")
)

// classifyQueryErr wraps driver errors from caller-supplied SQL. SQLite
// reports parse failures in the error text, there is no structured code for
// them in the driver.
func classifyQueryErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "sql logic error") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "no such column") {
		return fmt.Errorf("%w: %v", ErrQuerySyntax, err)
	}
	return err
}
