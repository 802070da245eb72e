package trend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

func rec(id, amount, ts string) types.ReconciledRecord {
	r := types.ReconciledRecord{}
	r.Identifier = id
	r.Withdrawal = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	if ts != "" {
		t, err := time.Parse("2006-01-02 15:04", ts)
		if err != nil {
			panic(err)
		}
		r.Timestamp = types.NullTime{Time: t, Valid: true}
	}
	return r
}

func TestAggregate_SameDayDifferentTimes(t *testing.T) {
	rows := Aggregate([]types.ReconciledRecord{
		rec("A", "100", "2025-04-18 09:00"),
		rec("A", "200", "2025-04-18 23:59"),
		rec("B", "50", "2025-04-18 00:00"),
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "18-Apr", rows[0].Label)
	assert.Equal(t, 2, rows[0].Entities)
	assert.Equal(t, "350", rows[0].Amount.String())
	assert.Nil(t, rows[0].PercentChange)
	assert.Equal(t, int64(175), rows[0].Average)

	assert.True(t, rows[1].GrandTotal)
	assert.Equal(t, GrandTotalLabel, rows[1].Label)
}

func TestAggregate_ChronologicalAcrossMonths(t *testing.T) {
	rows := Aggregate([]types.ReconciledRecord{
		rec("A", "300", "2025-05-01 10:00"),
		rec("B", "200", "2025-04-30 10:00"),
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "30-Apr", rows[0].Label)
	assert.Nil(t, rows[0].PercentChange, "first bucket by date carries the sentinel")
	assert.Equal(t, "01-May", rows[1].Label)
	require.NotNil(t, rows[1].PercentChange)
	assert.Equal(t, int64(50), *rows[1].PercentChange)
}

func TestAggregate_ZeroPreviousAmountIsSentinel(t *testing.T) {
	rows := Aggregate([]types.ReconciledRecord{
		rec("A", "0", "2025-04-18 10:00"),
		rec("A", "100", "2025-04-19 10:00"),
		rec("A", "40", "2025-04-20 10:00"),
	})

	assert.Nil(t, rows[1].PercentChange)
	require.NotNil(t, rows[2].PercentChange)
	assert.Equal(t, int64(-60), *rows[2].PercentChange)
}

func TestAggregate_GrandTotal(t *testing.T) {
	records := []types.ReconciledRecord{
		rec("A", "0.10", "2025-04-18 10:00"),
		rec("B", "0.20", "2025-04-18 11:00"),
		rec("A", "0.30", "2025-04-19 10:00"),
		rec("C", "7", ""),
	}
	rows := Aggregate(records)
	require.Len(t, rows, 3)

	grand := rows[2]
	assert.Equal(t, 3, grand.Entities, "sum of daily distinct counts")
	assert.Equal(t, "7.6", grand.Amount.String(), "whole relation, including undated records")
	assert.Nil(t, grand.PercentChange)
	assert.True(t, grand.HasAverage)
	assert.Equal(t, int64(3), grand.Average)

	daily := decimal.Zero
	for _, r := range rows[:2] {
		daily = daily.Add(r.Amount)
	}
	assert.Equal(t, "0.6", daily.String(), "decimal sums are exact")
}

func TestAggregate_NoDatedRecords(t *testing.T) {
	rows := Aggregate([]types.ReconciledRecord{rec("", "10", "")})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].GrandTotal)
	assert.False(t, rows[0].HasAverage)
	assert.Equal(t, 0, rows[0].Entities)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		prev, cur string
		want      *int64
	}{
		{"0", "10", nil},
		{"100", "150", ptr(50)},
		{"200", "100", ptr(-50)},
		{"3", "4", ptr(33)},
		{"3", "5", ptr(67)},
	}
	for _, tt := range tests {
		got := PercentChange(decimal.RequireFromString(tt.prev), decimal.RequireFromString(tt.cur))
		assert.Equal(t, tt.want, got, "%s -> %s", tt.prev, tt.cur)
	}
}

func TestSummarize_ExcludesConfiguredDatesAndGrandTotal(t *testing.T) {
	rows := Aggregate([]types.ReconciledRecord{
		rec("A", "9999", "2025-04-18 10:00"),
		rec("B", "9999", "2025-04-18 10:00"),
		rec("C", "9999", "2025-04-18 10:00"),
		rec("A", "100", "2025-04-19 10:00"),
		rec("A", "301", "2025-04-20 10:00"),
		rec("B", "0", "2025-04-20 11:00"),
	})

	pilot := time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC)
	stats := Summarize(rows, []time.Time{pilot})

	assert.Equal(t, 2, stats.Days)
	assert.Equal(t, 2, stats.HighestEntities)
	assert.Equal(t, "301", stats.HighestAmount.String())
	assert.Equal(t, int64(1), stats.AverageEntities)
	assert.Equal(t, int64(200), stats.AverageAmount)

	all := Summarize(rows, nil)
	assert.Equal(t, 3, all.Days)
	assert.Equal(t, 3, all.HighestEntities)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "-", FormatPercent(nil))
	assert.Equal(t, "-12%", FormatPercent(ptr(-12)))
}

func ptr(v int64) *int64 { return &v }
