// =============================================================================
// Withdrawal Reconciler - Filter Engine
// =============================================================================
//
// This module narrows the reconciled relation for display and export. A
// record is kept when it satisfies every predicate of the Spec:
//   - DateFrom/DateTo : the transaction day lies within the inclusive bounds
//   - Equals          : each column equals its value ("All" skips, "Blank"
//                       matches an empty field)
//   - Text            : case-insensitive substring of any column
//
// =============================================================================

package filter

import (
	"strings"
	"time"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/validation"
)

// =============================================================================
// FILTER SPEC
// =============================================================================

// Special equality values.
const (
	// All disables an equality predicate.
	All = "All"
	// Blank matches records whose field is absent or empty.
	Blank = "Blank"
)

// Spec is a filter request. The zero value selects everything.
type Spec struct {
	// DateFrom and DateTo bound the transaction day, inclusive. When either
	// is set, records without a timestamp are excluded.
	DateFrom *time.Time
	DateTo   *time.Time

	// Equals maps a column name to the value it must equal.
	Equals map[string]string

	// Text is matched case-insensitively against every column.
	Text string
}

// Result is the outcome of Apply.
type Result struct {
	Records    []types.ReconciledRecord
	Validation *validation.ValidationResult
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies filter specs to a reconciled relation.
type Engine struct {
	columns []string
}

// New creates an Engine for records carrying the given source columns. The
// derived columns are always filterable.
func New(sourceColumns []string) *Engine {
	cols := make([]string, 0, len(sourceColumns)+len(types.DerivedColumns))
	cols = append(cols, sourceColumns...)
	cols = append(cols, types.DerivedColumns...)
	return &Engine{columns: cols}
}

// Columns returns every filterable column name.
func (e *Engine) Columns() []string {
	return e.columns
}

// Apply returns the records satisfying every predicate of spec, in input
// order. The input slice is not modified. Validation problems are reported
// in the result and never stop the query.
func (e *Engine) Apply(records []types.ReconciledRecord, spec Spec) Result {
	v := validation.ValidateFilter(validation.FilterInput{
		DateFrom: spec.DateFrom,
		DateTo:   spec.DateTo,
		Equals:   spec.Equals,
	}, e.columns)

	p := compile(spec)
	out := make([]types.ReconciledRecord, 0, len(records))
	for _, r := range records {
		if p.match(r) {
			out = append(out, r)
		}
	}
	return Result{Records: out, Validation: v}
}

// Options lists the choices for an equality filter on field: All, then each
// distinct value in first-seen order with empty values shown as Blank.
func Options(records []types.ReconciledRecord, field string) []string {
	out := []string{All}
	seen := map[string]bool{}
	for _, r := range records {
		v, _ := r.Field(field)
		v = strings.TrimSpace(v)
		if v == "" {
			v = Blank
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// =============================================================================
// PREDICATES
// =============================================================================

type predicate struct {
	from, to *time.Time
	equals   map[string]string
	text     string
}

func compile(spec Spec) predicate {
	p := predicate{equals: map[string]string{}}
	if spec.DateFrom != nil {
		d := types.Day(*spec.DateFrom)
		p.from = &d
	}
	if spec.DateTo != nil {
		d := types.Day(*spec.DateTo)
		p.to = &d
	}
	for field, value := range spec.Equals {
		value = strings.TrimSpace(value)
		if value == "" || value == All {
			continue
		}
		p.equals[field] = value
	}
	p.text = strings.ToLower(strings.TrimSpace(spec.Text))
	return p
}

func (p predicate) match(r types.ReconciledRecord) bool {
	if p.from != nil || p.to != nil {
		if !r.Timestamp.Valid {
			return false
		}
		d := r.Timestamp.Date()
		if p.from != nil && d.Before(*p.from) {
			return false
		}
		if p.to != nil && d.After(*p.to) {
			return false
		}
	}

	for field, want := range p.equals {
		got, _ := r.Field(field)
		got = strings.TrimSpace(got)
		if want == Blank {
			if got != "" {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}

	if p.text != "" && !containsText(r, p.text) {
		return false
	}
	return true
}

func containsText(r types.ReconciledRecord, needle string) bool {
	for _, v := range r.Raw {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	for _, c := range types.DerivedColumns {
		v, _ := r.Field(c)
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
