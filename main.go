// =============================================================================
// Withdrawal Reconciler - Main Entry Point
// =============================================================================
//
// USAGE:
//   reconciler reconcile   - Reconcile, print the report and export
//   reconciler filter      - Export a filtered subset of the reconciled records
//   reconciler schedule    - Re-run on a cron schedule
//   reconciler version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline stages (parsers, normalizer, reconciler, anomaly,
//                  trend, filter, export, geo) and their support packages
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/withdrawal-reconciliation/cmd"
)

func main() {
	cmd.Execute()
}
