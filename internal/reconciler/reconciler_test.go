package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

func tx(id string, amount int64, ts string) types.TransactionRecord {
	rec := types.TransactionRecord{
		Identifier: id,
		Withdrawal: decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		Raw:        map[string]string{"CNIC": id},
	}
	if ts != "" {
		t, _ := time.Parse("2006-01-02 15:04", ts)
		rec.Timestamp = types.NullTime{Time: t, Valid: true}
	}
	return rec
}

func legacy(id string, balance int64) types.LegacyBalanceRecord {
	return types.LegacyBalanceRecord{
		Identifier: id,
		Balance:    decimal.NewNullDecimal(decimal.NewFromInt(balance)),
	}
}

func TestReconcile_WorkedExample(t *testing.T) {
	transactions := []types.TransactionRecord{
		tx("A", 100, "2025-04-18 09:00"),
		tx("A", 200, "2025-04-18 15:00"),
		tx("B", 50, "2025-04-19 10:00"),
	}
	ledger := []types.LegacyBalanceRecord{legacy("A", 1500)}

	records, summary := Reconcile(transactions, ledger)

	require.Len(t, records, 3)
	for _, r := range records[:2] {
		assert.Equal(t, types.Matched, r.Status)
		assert.Equal(t, types.Medium, r.BalanceCategory)
		assert.True(t, r.Balance.Equal(decimal.NewFromInt(1500)))
	}
	assert.Equal(t, types.Unmatched, records[2].Status)
	assert.Equal(t, types.NoBalance, records[2].BalanceCategory)

	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 2, summary.MatchedRecords)
	assert.Equal(t, 1, summary.UnmatchedRecords)
	assert.Equal(t, 2, summary.DistinctIdentifiers)
	assert.Equal(t, 1, summary.DistinctMatched)
	assert.Equal(t, 1, summary.DistinctUnmatched)
	assert.Equal(t, "350", summary.TotalWithdrawal.String())
	assert.Equal(t, "300", summary.MatchedWithdrawal.String())
	assert.Equal(t, "50", summary.UnmatchedWithdrawal.String())
	assert.Equal(t, "50", summary.MatchRate().String())
	assert.Equal(t, 0, summary.LegacyOrphans)
	require.True(t, summary.AsOf.Valid)
	assert.Equal(t, 19, summary.AsOf.Time.Day())
}

func TestReconcile_PreservesRowCountAndOrder(t *testing.T) {
	transactions := []types.TransactionRecord{tx("C", 1, ""), tx("", 2, ""), tx("A", 3, ""), tx("C", 4, "")}
	records, summary := Reconcile(transactions, []types.LegacyBalanceRecord{legacy("C", 10)})

	require.Len(t, records, len(transactions))
	for i := range transactions {
		assert.Equal(t, transactions[i].Identifier, records[i].Identifier)
	}
	assert.Equal(t, types.Unmatched, records[1].Status, "empty identifier never matches")
	assert.Equal(t, 2, summary.DistinctIdentifiers)
}

func TestReconcile_EmptyLegacyIdentifierDoesNotMatchEmptyTransaction(t *testing.T) {
	records, summary := Reconcile(
		[]types.TransactionRecord{tx("", 10, "")},
		[]types.LegacyBalanceRecord{legacy("", 900)},
	)
	assert.Equal(t, types.Unmatched, records[0].Status)
	assert.Equal(t, 0, summary.LegacyDistinct)
	assert.Equal(t, "900", summary.LegacyBalance.String())
}

func TestReconcile_FirstLegacyOccurrenceWins(t *testing.T) {
	ledger := []types.LegacyBalanceRecord{legacy("A", 500), legacy("A", 20000), legacy("Z", 1)}
	records, summary := Reconcile([]types.TransactionRecord{tx("A", 1, "")}, ledger)

	assert.True(t, records[0].Balance.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, types.Low, records[0].BalanceCategory)
	assert.Equal(t, 1, summary.LegacyDuplicates)
	assert.Equal(t, 2, summary.LegacyDistinct)
	assert.Equal(t, 3, summary.LegacyRecords)
	assert.Equal(t, 1, summary.LegacyOrphans)
}

func TestReconcile_AbsentBalanceIsNoBalance(t *testing.T) {
	ledger := []types.LegacyBalanceRecord{{Identifier: "A"}}
	records, _ := Reconcile([]types.TransactionRecord{tx("A", 1, "")}, ledger)

	assert.Equal(t, types.Matched, records[0].Status)
	assert.Equal(t, types.NoBalance, records[0].BalanceCategory)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	transactions := []types.TransactionRecord{tx("A", 1, "")}
	ledger := []types.LegacyBalanceRecord{legacy("A", 10)}
	before := transactions[0]

	records, _ := Reconcile(transactions, ledger)
	records[0].Identifier = "changed"

	assert.Equal(t, before.Identifier, transactions[0].Identifier)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		balance string
		want    types.BalanceCategory
	}{
		{"-5", types.NoBalance},
		{"0", types.NoBalance},
		{"0.01", types.Low},
		{"1000", types.Low},
		{"1000.01", types.Medium},
		{"5000", types.Medium},
		{"5001", types.High},
		{"10000", types.High},
		{"10000.5", types.VeryHigh},
	}
	for _, tt := range tests {
		t.Run(tt.balance, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(decimal.RequireFromString(tt.balance)))
		})
	}
}

func TestCategoryCounts_PartitionsRecords(t *testing.T) {
	var transactions []types.TransactionRecord
	var ledger []types.LegacyBalanceRecord
	for i, b := range []int64{0, 1, 1000, 1001, 5000, 9000, 10000, 10001} {
		id := string(rune('a' + i))
		transactions = append(transactions, tx(id, 1, ""))
		ledger = append(ledger, legacy(id, b))
	}
	transactions = append(transactions, tx("unmatched", 1, ""))

	records, _ := Reconcile(transactions, ledger)
	counts := CategoryCounts(records)

	total := 0
	for _, c := range types.AllCategories {
		total += counts[c]
	}
	assert.Equal(t, len(records), total)
	assert.Equal(t, 2, counts[types.NoBalance])
	assert.Equal(t, 2, counts[types.Low])
	assert.Equal(t, 2, counts[types.Medium])
	assert.Equal(t, 2, counts[types.High])
	assert.Equal(t, 1, counts[types.VeryHigh])
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "No Balance", CategoryLabel(types.NoBalance))
	assert.Equal(t, "Low (1-1,000)", CategoryLabel(types.Low))
	assert.Equal(t, "Very High (10,000+)", CategoryLabel(types.VeryHigh))
}
