package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
//
// Fatal:     SchemaError, SourceMissingError (abort the run, no partial output)
// Non-fatal: ParseError, InputRangeError     (degrade at field level, keep going)

// SchemaError reports a required column that is absent from an extract.
type SchemaError struct {
	Extract string
	Column  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s extract is missing required column %q", e.Extract, e.Column)
}

// SourceMissingError reports an extract file that could not be located.
type SourceMissingError struct {
	Path      string
	Available []string
}

func (e *SourceMissingError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("extract not found: %s (directory has no candidate files)", e.Path)
	}
	return fmt.Sprintf("extract not found: %s (available: %s)", e.Path, strings.Join(e.Available, ", "))
}

// ParseError reports a single cell that failed to coerce. The field is
// treated as absent and processing continues.
type ParseError struct {
	Extract string
	Row     int
	Column  string
	Value   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d, column %q: cannot parse %q: %v", e.Extract, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InputRangeError reports a user-correctable filter bound problem.
type InputRangeError struct {
	Field   string
	Message string
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
