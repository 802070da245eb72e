// =============================================================================
// Withdrawal Reconciler - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, which runs the pipeline once.
//
// COMMAND USAGE:
//   reconciler reconcile [flags]
//
// FLAGS:
//   --no-export    : Print the report without writing export files
//   --map-points   : Also print how many device locations fall inside the
//                    configured map bounds, per district
//
// PROCESSING PIPELINE:
//   1. Fingerprint and load both extracts
//   2. Normalize, reconcile, detect anomalies, aggregate the trend
//   3. Print the report
//   4. Export the full reconciled relation (CSV/XLSX per config)
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/geo"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// noExport skips writing export files.
var noExport bool

// mapPoints prints the map point breakdown.
var mapPoints bool

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the transaction extract against the legacy balances",
	Long: `The reconcile command loads both extracts, joins every transaction with the
first legacy balance of the same CNIC, and prints:
  - summary counts and amounts
  - the balance category breakdown
  - data-quality messages
  - the daily trend table with its grand total

Unless --no-export is given, the reconciled relation is then written to the
export directory in every configured format.

A missing extract is reported together with the extract files that do exist
in the same directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().BoolVar(
		&noExport,
		"no-export",
		false,
		"Print the report without writing export files",
	)

	reconcileCmd.Flags().BoolVar(
		&mapPoints,
		"map-points",
		false,
		"Print device locations inside the map bounds per district",
	)
}

// runReconcile is the main function for the 'reconcile' command.
func runReconcile(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runner, err := newRunner()
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printReport(out, result)

	if mapPoints {
		points := geo.Points(result.Records, geo.BoundsFromConfig(mainConfig.Map))
		counts := map[string]int{}
		for _, p := range points {
			counts[p.District]++
		}
		fmt.Fprintf(out, "\n=== Map Points (%d of %d records) ===\n", len(points), len(result.Records))
		for _, entry := range geo.Legend(points) {
			name := entry[0]
			if name == "" {
				name = "Blank"
			}
			fmt.Fprintf(out, "  %-24s %s  %d\n", name, entry[1], counts[entry[0]])
		}
	}

	if noExport {
		return nil
	}
	fmt.Fprintln(out)
	return exportDataset(ctx, out, result, result.Records)
}
