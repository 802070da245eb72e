// =============================================================================
// Withdrawal Reconciler - Trend Aggregator
// =============================================================================
//
// This module buckets reconciled records by calendar day and derives the
// daily trend table:
//
//   Date   | Entities | Amount | % Change | Avg per Entity
//   18-Apr |       12 |  48000 |        - |           4000
//   19-Apr |       30 | 150000 |     213% |           5000
//   Grand Total ...
//
// Buckets are ordered by their underlying date, never by label.
//
// =============================================================================

package trend

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

const (
	// LabelLayout is the display layout of a bucket date.
	LabelLayout = "02-Jan"

	// GrandTotalLabel labels the synthesized total row.
	GrandTotalLabel = "Grand Total"
)

var hundred = decimal.NewFromInt(100)

type bucket struct {
	date   time.Time
	ids    map[string]struct{}
	amount decimal.Decimal
}

// =============================================================================
// DAILY TREND
// =============================================================================

// Aggregate builds the daily trend rows followed by the grand total row.
//
// Records without a timestamp are left out of the daily buckets but their
// amounts still count toward the grand total, which sums the whole relation.
// The grand total entity count is the sum of the daily counts, so an
// identifier active on two days counts twice.
func Aggregate(records []types.ReconciledRecord) []types.DailyTrendRow {
	byDay := map[time.Time]*bucket{}
	total := decimal.Zero

	for _, r := range records {
		amount := r.Amount()
		total = total.Add(amount)
		if !r.Timestamp.Valid {
			continue
		}

		day := r.Timestamp.Date()
		b, ok := byDay[day]
		if !ok {
			b = &bucket{date: day, ids: map[string]struct{}{}, amount: decimal.Zero}
			byDay[day] = b
		}
		if r.Identifier != "" {
			b.ids[r.Identifier] = struct{}{}
		}
		b.amount = b.amount.Add(amount)
	}

	buckets := make([]*bucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].date.Before(buckets[j].date) })

	rows := make([]types.DailyTrendRow, 0, len(buckets)+1)
	entities := 0
	for i, b := range buckets {
		row := types.DailyTrendRow{
			Date:     b.date,
			Label:    b.date.Format(LabelLayout),
			Entities: len(b.ids),
			Amount:   b.amount,
		}
		row.Average, row.HasAverage = average(row.Amount, row.Entities)
		if i > 0 {
			row.PercentChange = PercentChange(buckets[i-1].amount, b.amount)
		}
		entities += row.Entities
		rows = append(rows, row)
	}

	grand := types.DailyTrendRow{
		Label:      GrandTotalLabel,
		Entities:   entities,
		Amount:     total,
		GrandTotal: true,
	}
	grand.Average, grand.HasAverage = average(total, entities)

	return append(rows, grand)
}

// PercentChange returns round((cur - prev) / prev * 100), or nil when prev is
// zero.
func PercentChange(prev, cur decimal.Decimal) *int64 {
	if prev.IsZero() {
		return nil
	}
	pct := cur.Sub(prev).Mul(hundred).Div(prev).RoundBank(0).IntPart()
	return &pct
}

func average(amount decimal.Decimal, count int) (int64, bool) {
	if count == 0 {
		return 0, false
	}
	return amount.Div(decimal.NewFromInt(int64(count))).RoundBank(0).IntPart(), true
}

// =============================================================================
// SUMMARY STATISTICS
// =============================================================================

// Stats are the headline figures shown above the trend table.
type Stats struct {
	// Days is the number of daily rows the figures were computed over.
	Days int

	HighestEntities int
	HighestAmount   decimal.Decimal

	// Averages per day, truncated toward zero.
	AverageEntities int64
	AverageAmount   int64
}

// Summarize computes Stats over the daily rows, skipping the grand total
// and any row whose date is in excluded.
func Summarize(rows []types.DailyTrendRow, excluded []time.Time) Stats {
	skip := make(map[time.Time]struct{}, len(excluded))
	for _, d := range excluded {
		y, m, dd := d.Date()
		skip[time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)] = struct{}{}
	}

	stats := Stats{HighestAmount: decimal.Zero}
	entities := 0
	amount := decimal.Zero

	for _, row := range rows {
		if row.GrandTotal {
			continue
		}
		if _, ok := skip[row.Date]; ok {
			continue
		}
		stats.Days++
		entities += row.Entities
		amount = amount.Add(row.Amount)
		if row.Entities > stats.HighestEntities {
			stats.HighestEntities = row.Entities
		}
		if row.Amount.GreaterThan(stats.HighestAmount) {
			stats.HighestAmount = row.Amount
		}
	}

	if stats.Days > 0 {
		days := decimal.NewFromInt(int64(stats.Days))
		stats.AverageEntities = int64(entities / stats.Days)
		stats.AverageAmount = amount.Div(days).Truncate(0).IntPart()
	}
	return stats
}

// FormatPercent renders a percent change for display, "-" for the sentinel.
func FormatPercent(pct *int64) string {
	if pct == nil {
		return "-"
	}
	return decimal.NewFromInt(*pct).String() + "%"
}
