// =============================================================================
// Withdrawal Reconciler - Shared Types
// =============================================================================
//
// This package contains the record types shared by every stage of the
// reconciliation pipeline. Keeping them here avoids import cycles between:
//   - csvparser / xlsxparser (produce Table)
//   - normalizer            (produces TransactionRecord, LegacyBalanceRecord)
//   - reconciler            (produces ReconciledRecord)
//   - anomaly, trend, filter, export, geo (consume ReconciledRecord)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW TABLE
// =============================================================================

// Table is a raw extract read from disk, before any type coercion.
type Table struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// SourceFile is the path the table was read from.
	SourceFile string
}

// HasColumn reports whether the table carries the given header.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// CleanHeaders trims raw header cells. Empty headers are named Column_<n> by
// position and a repeated name gets a _<n> suffix, so every column keeps its
// own key in the row maps.
func CleanHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		for base, n := h, i+1; seen[h]; n++ {
			h = fmt.Sprintf("%s_%d", base, n)
		}
		seen[h] = true
		out[i] = h
	}
	return out
}

// =============================================================================
// NULLABLE VALUES
// =============================================================================

// NullTime is a timestamp that may be absent.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Date returns the calendar day of the timestamp at midnight UTC.
func (n NullTime) Date() time.Time {
	return Day(n.Time)
}

// Day returns the calendar day of t at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// INPUT RECORDS
// =============================================================================

// TransactionRecord is one row of the daily transaction feed.
type TransactionRecord struct {
	// Identifier is the trimmed join key. Empty means absent.
	Identifier string

	// Timestamp is absent when the cell was blank or failed to parse.
	Timestamp NullTime

	// Withdrawal is the withdrawn amount. Absent amounts count as zero.
	Withdrawal decimal.NullDecimal

	// District is the district name. Empty means absent.
	District string

	Latitude  decimal.NullDecimal
	Longitude decimal.NullDecimal
	Accuracy  decimal.NullDecimal

	// Raw carries every column of the source row as read, keyed by header.
	Raw map[string]string

	// Row is the 1-indexed data row number in the source extract.
	Row int
}

// Amount returns the withdrawal amount, or zero when absent.
func (t TransactionRecord) Amount() decimal.Decimal {
	if t.Withdrawal.Valid {
		return t.Withdrawal.Decimal
	}
	return decimal.Zero
}

// LegacyBalanceRecord is one row of the legacy balance ledger.
type LegacyBalanceRecord struct {
	Identifier string
	Balance    decimal.NullDecimal
	Row        int
}

// =============================================================================
// RECONCILIATION RESULT
// =============================================================================

// Status tells whether a transaction found a legacy balance.
type Status int

const (
	Unmatched Status = iota
	Matched
)

func (s Status) String() string {
	if s == Matched {
		return "Matched"
	}
	return "Unmatched"
}

// BalanceCategory is the ordered bucket of a matched balance.
type BalanceCategory int

const (
	NoBalance BalanceCategory = iota
	Low
	Medium
	High
	VeryHigh
)

// AllCategories lists the categories in ascending order.
var AllCategories = []BalanceCategory{NoBalance, Low, Medium, High, VeryHigh}

func (c BalanceCategory) String() string {
	switch c {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case VeryHigh:
		return "VeryHigh"
	default:
		return "NoBalance"
	}
}

// Derived column names appended to the transaction columns on export and
// addressable by the filter engine.
const (
	ColumnStatus   = "Reconciliation Status"
	ColumnBalance  = "Legacy Balance"
	ColumnCategory = "Balance Category"
)

// DerivedColumns lists the derived columns in export order.
var DerivedColumns = []string{ColumnStatus, ColumnBalance, ColumnCategory}

// ReconciledRecord is a transaction joined with at most one legacy balance.
type ReconciledRecord struct {
	TransactionRecord

	// Balance is the matched legacy balance, zero when unmatched.
	Balance decimal.Decimal

	Status          Status
	BalanceCategory BalanceCategory
}

// =============================================================================
// TREND TYPES
// =============================================================================

// DailyTrendRow is one calendar-day bucket of the trend table.
type DailyTrendRow struct {
	// Date is the bucket day at midnight UTC. Zero for the grand total row.
	Date time.Time

	// Label is the display label ("02-Jan" or "Grand Total").
	Label string

	Entities int
	Amount   decimal.Decimal

	// PercentChange is nil for the first bucket, the grand total, and any
	// bucket whose predecessor summed to zero.
	PercentChange *int64

	// Average is round(Amount / Entities). HasAverage is false when Entities is 0.
	Average    int64
	HasAverage bool

	GrandTotal bool
}

// Field returns the string form of a column: a derived column, or the raw
// source cell. ok is false when the record has no such column.
func (r ReconciledRecord) Field(name string) (value string, ok bool) {
	switch name {
	case ColumnStatus:
		return r.Status.String(), true
	case ColumnBalance:
		return r.Balance.String(), true
	case ColumnCategory:
		return r.BalanceCategory.String(), true
	}
	value, ok = r.Raw[name]
	return value, ok
}
