// =============================================================================
// Withdrawal Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── reconcileCmd (reconciler reconcile)
//   ├── filterCmd    (reconciler filter)
//   ├── scheduleCmd  (reconciler schedule)
//   └── versionCmd   (reconciler version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads .env (if present) so RECON_* variables can override the file
//   2. Loads the YAML configuration
//   3. Sets up the zerolog logger (--verbose forces debug level)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/logger"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/pipeline"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to the optional .env file.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig and log are set by the root command before a subcommand runs.
var (
	mainConfig *config.MainConfig
	log        zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Withdrawal Reconciler - reconcile daily withdrawals against legacy balances",
	Long: `Withdrawal Reconciler joins a daily withdrawal transaction extract with a
legacy balance ledger, classifies every transaction, reports data-quality
issues and builds a daily trend table.

Key Features:
  - CSV, XLSX and XLS extracts with configurable column names
  - Matched/Unmatched status and balance categories per transaction
  - Blank district, missing coordinate and missing CNIC checks
  - Daily trend with percent change, averages and a grand total
  - Date, equality and free-text filters with CSV/XLSX export

Example Usage:
  reconciler reconcile                       # Run once and export
  reconciler reconcile --config ./my.yaml    # Use a custom configuration file
  reconciler filter --from 2025-04-19 --equals "District Name=Lahore"
  reconciler schedule --cron "@every 1h"     # Recompute periodically`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv(envFile)

		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		mainConfig = cfg
		log = logger.New(level)

		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRunner builds a pipeline runner over the configured extract files.
func newRunner() (*pipeline.Runner, error) {
	return pipeline.NewRunner(mainConfig, pipeline.NewFileSource(mainConfig))
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (a missing file means defaults)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with RECON_* overrides",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
