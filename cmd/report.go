// =============================================================================
// Withdrawal Reconciler - Report Output
// =============================================================================
//
// This file renders a pipeline result as text for the reconcile and filter
// commands, and writes exports through the configured exporter.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/export"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/pipeline"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// =============================================================================
// REPORT
// =============================================================================

// timestampLayout is how the "as of" time is shown.
const timestampLayout = "02-Jan-2006 15:04:05"

// printReport writes the summary, the category breakdown, the data-quality
// messages and the trend table.
func printReport(w io.Writer, result *pipeline.Result) {
	s := result.Summary

	fmt.Fprintln(w, "=== Reconciliation Summary ===")
	if s.AsOf.Valid {
		fmt.Fprintf(w, "Data as of:          %s\n", s.AsOf.Time.Format(timestampLayout))
	}
	fmt.Fprintf(w, "Run ID:              %s\n", result.RunID)
	fmt.Fprintf(w, "Transactions:        %d (%d unique CNICs)\n", s.TotalRecords, s.DistinctIdentifiers)
	fmt.Fprintf(w, "Matched:             %d (%d unique, %s%%)\n", s.MatchedRecords, s.DistinctMatched, s.MatchRate())
	fmt.Fprintf(w, "Unmatched:           %d (%d unique)\n", s.UnmatchedRecords, s.DistinctUnmatched)
	fmt.Fprintf(w, "Total withdrawn:     %s\n", s.TotalWithdrawal.StringFixed(0))
	fmt.Fprintf(w, "Matched withdrawn:   %s\n", s.MatchedWithdrawal.StringFixed(0))
	fmt.Fprintf(w, "Unmatched withdrawn: %s\n", s.UnmatchedWithdrawal.StringFixed(0))
	fmt.Fprintf(w, "Legacy records:      %d (%d unique, %d without transactions, %d duplicates)\n",
		s.LegacyRecords, s.LegacyDistinct, s.LegacyOrphans, s.LegacyDuplicates)
	fmt.Fprintf(w, "Legacy balance:      %s\n", s.LegacyBalance.StringFixed(0))
	if n := len(result.ParseErrors); n > 0 {
		fmt.Fprintf(w, "Unparseable cells:   %d\n", n)
	}

	fmt.Fprintln(w, "\n=== Balance Categories ===")
	printCategories(w, result.Records)

	fmt.Fprintln(w, "\n=== Data Quality ===")
	for _, msg := range result.Anomalies.Messages() {
		fmt.Fprintf(w, "  - %s\n", msg)
	}

	fmt.Fprintln(w, "\n=== Daily Trend ===")
	printTrend(w, result.Trend)

	st := result.Stats
	fmt.Fprintf(w, "\nHighest entities in a day: %d\n", st.HighestEntities)
	fmt.Fprintf(w, "Highest amount in a day:   %s\n", st.HighestAmount.StringFixed(0))
	fmt.Fprintf(w, "Average entities per day:  %d\n", st.AverageEntities)
	fmt.Fprintf(w, "Average amount per day:    %d\n", st.AverageAmount)
}

func printCategories(w io.Writer, records []types.ReconciledRecord) {
	counts := reconciler.CategoryCounts(records)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range types.AllCategories {
		fmt.Fprintf(tw, "  %s\t%d\n", reconciler.CategoryLabel(c), counts[c])
	}
	tw.Flush()
}

func printTrend(w io.Writer, rows []types.DailyTrendRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, h := range export.TrendHeaders {
		fmt.Fprintf(tw, "%s\t", h)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for _, v := range export.TrendValues(row) {
			fmt.Fprintf(tw, "%s\t", v)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// =============================================================================
// EXPORT
// =============================================================================

// exportDataset writes the records with the configured exporter and prints
// the file paths.
func exportDataset(ctx context.Context, w io.Writer, result *pipeline.Result, records []types.ReconciledRecord) error {
	paths, err := export.New(mainConfig.Export).Export(ctx, export.Dataset{
		Columns: result.Columns,
		Records: records,
		Trend:   result.Trend,
		AsOf:    result.Summary.AsOf,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	for _, p := range paths {
		fmt.Fprintf(w, "Exported %s\n", p)
	}
	return nil
}
