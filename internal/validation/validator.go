// =============================================================================
// Withdrawal Reconciler - Validation Engine
// =============================================================================
//
// This module validates user-supplied filter input before the filter engine
// runs. Validation never blocks the query: every problem is collected as a
// ValidationError and handed back to the caller alongside the result.
//
// CHECKS:
//   - Date range: a lower bound after the upper bound is an InputRangeError.
//   - Equality predicates: a field that no record carries is a warning; the
//     predicate then compares against an empty value.
//   - Equality predicates: an empty value is a warning and is ignored.
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleDateRange    = "date_range"
	RuleUnknownField = "unknown_field"
	RuleEmptyValue   = "empty_value"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation message.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning. Neither stops the query.
	Severity string

	// Field is the filter field the message is about.
	Field string

	// Value is the offending input.
	Value string

	// Rule is the check that produced the message.
	Rule string

	// Message is a human-readable description.
	Message string

	// Err is the typed cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Field,
		e.Message,
		e.Value,
	)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no error-severity messages.
	IsValid bool

	Errors       []*ValidationError
	ErrorCount   int
	WarningCount int

	// UnknownFields lists equality fields that matched no column.
	UnknownFields map[string]bool
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// Messages returns the string form of every collected error.
func (r *ValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

// =============================================================================
// FILTER INPUT
// =============================================================================

// FilterInput is the part of a filter request that can be checked up front.
type FilterInput struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Equals   map[string]string
}

// ValidateFilter checks a filter request against the known column names.
//
// PARAMETERS:
//   - in: The filter request.
//   - columns: Every column name the records can be filtered on.
//
// RETURNS:
//   - A ValidationResult. The query should run regardless.
func ValidateFilter(in FilterInput, columns []string) *ValidationResult {
	result := &ValidationResult{IsValid: true, UnknownFields: map[string]bool{}}

	// Bounds are compared as calendar days, the granularity the filter uses.
	if in.DateFrom != nil && in.DateTo != nil && types.Day(*in.DateFrom).After(types.Day(*in.DateTo)) {
		rangeErr := &types.InputRangeError{
			Field:   "date range",
			Message: "from date must be earlier than or equal to to date",
		}
		result.add(&ValidationError{
			Severity: SeverityError,
			Field:    "date",
			Value:    in.DateFrom.Format(config.DateLayout) + ".." + in.DateTo.Format(config.DateLayout),
			Rule:     RuleDateRange,
			Message:  rangeErr.Message,
			Err:      rangeErr,
		})
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	fields := make([]string, 0, len(in.Equals))
	for f := range in.Equals {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value := in.Equals[field]
		if !known[field] {
			result.UnknownFields[field] = true
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Field:    field,
				Value:    value,
				Rule:     RuleUnknownField,
				Message:  "no such column; comparing against an empty value",
			})
		}
		if strings.TrimSpace(value) == "" {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Field:    field,
				Value:    value,
				Rule:     RuleEmptyValue,
				Message:  "empty filter value is ignored",
			})
		}
	}

	return result
}
