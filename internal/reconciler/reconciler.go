// =============================================================================
// Withdrawal Reconciler - Reconciler
// =============================================================================
//
// This module joins the transaction feed with the legacy balance ledger.
//
// JOIN RULES:
//   - Left join on the trimmed identifier (exact string equality).
//   - Every transaction yields exactly one ReconciledRecord, in input order.
//   - Transactions with an empty identifier never match.
//   - When several legacy rows share an identifier the first one wins. Later
//     rows are counted in Summary.LegacyDuplicates.
//   - Legacy rows with no transaction add no output row but are counted in
//     the legacy statistics (Summary.LegacyOrphans).
//
// =============================================================================

package reconciler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// Balance category upper bounds (inclusive).
var (
	lowLimit    = decimal.NewFromInt(1000)
	mediumLimit = decimal.NewFromInt(5000)
	highLimit   = decimal.NewFromInt(10000)
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary holds the scalar statistics of one reconciliation.
type Summary struct {
	TotalRecords     int
	MatchedRecords   int
	UnmatchedRecords int

	DistinctIdentifiers int
	DistinctMatched     int
	DistinctUnmatched   int

	TotalWithdrawal     decimal.Decimal
	MatchedWithdrawal   decimal.Decimal
	UnmatchedWithdrawal decimal.Decimal

	LegacyRecords    int
	LegacyDistinct   int
	LegacyBalance    decimal.Decimal
	LegacyOrphans    int
	LegacyDuplicates int

	// AsOf is the latest transaction timestamp. Valid is false when no
	// record carries a timestamp.
	AsOf types.NullTime
}

// MatchRate returns matched distinct identifiers as a share of all distinct
// identifiers, in percent.
func (s Summary) MatchRate() decimal.Decimal {
	if s.DistinctIdentifiers == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.DistinctMatched)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.DistinctIdentifiers))).
		Round(1)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile joins transactions with legacy balances.
//
// PARAMETERS:
//   - transactions: Normalized transaction records. Not modified.
//   - legacy: Normalized legacy balance records. Not modified.
//
// RETURNS:
//   - One ReconciledRecord per transaction, in transaction order.
//   - The summary scalars.
func Reconcile(transactions []types.TransactionRecord, legacy []types.LegacyBalanceRecord) ([]types.ReconciledRecord, Summary) {
	summary := Summary{LegacyRecords: len(legacy), LegacyBalance: decimal.Zero}

	balances := make(map[string]decimal.Decimal, len(legacy))
	for _, l := range legacy {
		if l.Balance.Valid {
			summary.LegacyBalance = summary.LegacyBalance.Add(l.Balance.Decimal)
		}
		if l.Identifier == "" {
			continue
		}
		if _, seen := balances[l.Identifier]; seen {
			summary.LegacyDuplicates++
			continue
		}
		balance := decimal.Zero
		if l.Balance.Valid {
			balance = l.Balance.Decimal
		}
		balances[l.Identifier] = balance
	}
	summary.LegacyDistinct = len(balances)

	records := make([]types.ReconciledRecord, 0, len(transactions))
	all := map[string]struct{}{}
	matched := map[string]struct{}{}
	unmatched := map[string]struct{}{}
	var latest time.Time
	summary.TotalWithdrawal = decimal.Zero
	summary.MatchedWithdrawal = decimal.Zero
	summary.UnmatchedWithdrawal = decimal.Zero

	for _, tx := range transactions {
		rec := types.ReconciledRecord{TransactionRecord: tx, Balance: decimal.Zero}

		balance, ok := balances[tx.Identifier]
		if ok && tx.Identifier != "" {
			rec.Status = types.Matched
			rec.Balance = balance
		}
		rec.BalanceCategory = Categorize(rec.Balance)
		records = append(records, rec)

		amount := tx.Amount()
		summary.TotalWithdrawal = summary.TotalWithdrawal.Add(amount)
		if rec.Status == types.Matched {
			summary.MatchedRecords++
			summary.MatchedWithdrawal = summary.MatchedWithdrawal.Add(amount)
			matched[tx.Identifier] = struct{}{}
		} else {
			summary.UnmatchedRecords++
			summary.UnmatchedWithdrawal = summary.UnmatchedWithdrawal.Add(amount)
			if tx.Identifier != "" {
				unmatched[tx.Identifier] = struct{}{}
			}
		}
		if tx.Identifier != "" {
			all[tx.Identifier] = struct{}{}
		}

		if tx.Timestamp.Valid && tx.Timestamp.Time.After(latest) {
			latest = tx.Timestamp.Time
			summary.AsOf = tx.Timestamp
		}
	}

	summary.TotalRecords = len(records)
	summary.DistinctIdentifiers = len(all)
	summary.DistinctMatched = len(matched)
	summary.DistinctUnmatched = len(unmatched)

	for id := range balances {
		if _, ok := all[id]; !ok {
			summary.LegacyOrphans++
		}
	}

	return records, summary
}

// Categorize maps a balance to its category. Bin edges belong to the lower
// category: 0 is NoBalance, 1000 is Low, 5000 is Medium, 10000 is High.
func Categorize(balance decimal.Decimal) types.BalanceCategory {
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return types.NoBalance
	case balance.LessThanOrEqual(lowLimit):
		return types.Low
	case balance.LessThanOrEqual(mediumLimit):
		return types.Medium
	case balance.LessThanOrEqual(highLimit):
		return types.High
	default:
		return types.VeryHigh
	}
}

// CategoryLabel returns the display label of a category.
func CategoryLabel(c types.BalanceCategory) string {
	switch c {
	case types.Low:
		return "Low (1-1,000)"
	case types.Medium:
		return "Medium (1,001-5,000)"
	case types.High:
		return "High (5,001-10,000)"
	case types.VeryHigh:
		return "Very High (10,000+)"
	default:
		return "No Balance"
	}
}

// CategoryCounts returns the number of records in each category.
func CategoryCounts(records []types.ReconciledRecord) map[types.BalanceCategory]int {
	counts := make(map[types.BalanceCategory]int, len(types.AllCategories))
	for _, c := range types.AllCategories {
		counts[c] = 0
	}
	for _, r := range records {
		counts[r.BalanceCategory]++
	}
	return counts
}
