// =============================================================================
// Withdrawal Reconciler - Filter Command
// =============================================================================
//
// This file defines the 'filter' command, which narrows the reconciled
// relation and exports the subset.
//
// COMMAND USAGE:
//   reconciler filter [flags]
//
// FLAGS:
//   --from     : First transaction day, inclusive (YYYY-MM-DD)
//   --to       : Last transaction day, inclusive (YYYY-MM-DD)
//   --equals   : Column=Value, repeatable. "All" disables, "Blank" matches empty
//   --search   : Case-insensitive text matched against every column
//   --options  : List the choices for a column and exit
//
// Validation problems (e.g. --from after --to) are printed as warnings; the
// filter still runs.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/filter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	fromDate      string
	toDate        string
	equalsFilters []string
	searchText    string
	optionsColumn string
	filterExport  bool
)

// filterCmd represents the 'filter' command.
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter the reconciled records and export the subset",
	Long: `The filter command runs the pipeline (or reuses a fresh memoized result) and
keeps the records that satisfy every given predicate:
  - the transaction day lies within --from/--to (records without a
    timestamp are dropped when either bound is given)
  - each --equals Column=Value holds
  - --search text appears in any column

Data-quality messages and the trend always describe the full relation.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilter(cmd)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringVar(&fromDate, "from", "", "First transaction day, inclusive (YYYY-MM-DD)")
	filterCmd.Flags().StringVar(&toDate, "to", "", "Last transaction day, inclusive (YYYY-MM-DD)")
	filterCmd.Flags().StringArrayVar(&equalsFilters, "equals", nil, `Column=Value predicate, repeatable ("All" disables, "Blank" matches empty)`)
	filterCmd.Flags().StringVar(&searchText, "search", "", "Case-insensitive text to find in any column")
	filterCmd.Flags().StringVar(&optionsColumn, "options", "", "List the filter choices for a column and exit")
	filterCmd.Flags().BoolVar(&filterExport, "export", true, "Write the filtered records to the export directory")
}

// runFilter is the main function for the 'filter' command.
func runFilter(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	spec, err := buildSpec(fromDate, toDate, equalsFilters, searchText)
	if err != nil {
		return err
	}

	runner, err := newRunner()
	if err != nil {
		return err
	}

	result, filtered, err := runner.Filter(ctx, spec)
	if err != nil {
		return err
	}

	if optionsColumn != "" {
		for _, o := range filter.Options(result.Records, optionsColumn) {
			fmt.Fprintln(out, o)
		}
		return nil
	}

	for _, msg := range filtered.Validation.Messages() {
		fmt.Fprintf(out, "Warning: %s\n", msg)
	}
	fmt.Fprintf(out, "Showing %d of %d records\n", len(filtered.Records), len(result.Records))

	if !filterExport {
		return nil
	}
	return exportDataset(ctx, out, result, filtered.Records)
}

// buildSpec turns the flag values into a filter spec.
func buildSpec(from, to string, equals []string, text string) (filter.Spec, error) {
	spec := filter.Spec{Text: text}

	if from != "" {
		d, err := time.Parse(config.DateLayout, from)
		if err != nil {
			return spec, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		spec.DateFrom = &d
	}
	if to != "" {
		d, err := time.Parse(config.DateLayout, to)
		if err != nil {
			return spec, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		spec.DateTo = &d
	}

	if len(equals) > 0 {
		spec.Equals = make(map[string]string, len(equals))
	}
	for _, pair := range equals {
		column, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return spec, fmt.Errorf("invalid --equals %q: expected Column=Value", pair)
		}
		spec.Equals[strings.TrimSpace(column)] = value
	}
	return spec, nil
}
