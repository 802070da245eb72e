// =============================================================================
// Withdrawal Reconciler - Anomaly Detector
// =============================================================================
//
// This module reports data-quality conditions over the full reconciled
// relation:
//   - Blank District      : the district cell is empty
//   - Missing Coordinates : latitude or longitude is absent
//   - Missing CNIC        : the identifier is empty
//
// A condition whose column is not in the transaction extract is skipped, so
// an extract without location columns is not flagged on every row.
//
// =============================================================================

package anomaly

import (
	"fmt"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// =============================================================================
// CONDITIONS
// =============================================================================

// NoIssuesMessage is reported when no condition is present.
const NoIssuesMessage = "No major data issues detected."

// Condition is a data-quality check.
type Condition int

const (
	BlankDistrict Condition = iota
	MissingCoordinates
	MissingIdentifier
)

func (c Condition) String() string {
	switch c {
	case BlankDistrict:
		return "Blank District"
	case MissingCoordinates:
		return "Missing Coordinates"
	default:
		return "Missing CNIC"
	}
}

// =============================================================================
// REPORT
// =============================================================================

// Finding is the result of one condition over a relation.
type Finding struct {
	Condition Condition
	Records   int
	// Distinct is the number of distinct identifiers among the flagged
	// records. Always 0 for MissingIdentifier.
	Distinct int
}

// Message renders the finding for display.
func (f Finding) Message() string {
	if f.Condition == MissingIdentifier {
		return fmt.Sprintf("%d record(s) have missing CNIC", f.Records)
	}
	return fmt.Sprintf("%d record(s) have %s (affecting %d unique CNICs)", f.Records, f.Condition, f.Distinct)
}

// Report holds the findings that are present, in condition order.
type Report struct {
	Findings []Finding
}

// Clean reports whether no condition was found.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// Messages returns one message per finding, or NoIssuesMessage.
func (r Report) Messages() []string {
	if r.Clean() {
		return []string{NoIssuesMessage}
	}
	out := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		out = append(out, f.Message())
	}
	return out
}

// =============================================================================
// DETECTION
// =============================================================================

// Columns tells Detect which optional columns the transaction extract has.
type Columns struct {
	District    bool
	Coordinates bool
}

// AllColumns marks every optional column as present.
var AllColumns = Columns{District: true, Coordinates: true}

// Detect checks the relation for blank districts, missing coordinates and
// missing identifiers. Conditions on columns absent from present are not
// checked. The records are only read.
func Detect(records []types.ReconciledRecord, present Columns) Report {
	checks := []struct {
		cond    Condition
		enabled bool
		flagged func(types.ReconciledRecord) bool
	}{
		{BlankDistrict, present.District, func(r types.ReconciledRecord) bool { return r.District == "" }},
		{MissingCoordinates, present.Coordinates, func(r types.ReconciledRecord) bool { return !r.Latitude.Valid || !r.Longitude.Valid }},
		{MissingIdentifier, true, func(r types.ReconciledRecord) bool { return r.Identifier == "" }},
	}

	var report Report
	for _, check := range checks {
		if !check.enabled {
			continue
		}
		f := Finding{Condition: check.cond}
		ids := map[string]struct{}{}
		for _, r := range records {
			if !check.flagged(r) {
				continue
			}
			f.Records++
			if r.Identifier != "" {
				ids[r.Identifier] = struct{}{}
			}
		}
		if f.Records == 0 {
			continue
		}
		f.Distinct = len(ids)
		report.Findings = append(report.Findings, f)
	}
	return report
}
