// =============================================================================
// Withdrawal Reconciler - Schedule Command
// =============================================================================
//
// This file defines the 'schedule' command, which re-runs the pipeline on a
// cron schedule until interrupted. Unchanged extracts hit the memo; changed
// extracts or an expired memo trigger a recompute and a fresh export.
//
// COMMAND USAGE:
//   reconciler schedule --cron "*/30 * * * *"
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/pipeline"
)

var (
	cronSpec     string
	cronLocation string
)

// scheduleCmd represents the 'schedule' command.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the reconciliation on a cron schedule",
	Long: `The schedule command runs the reconciliation immediately and then on every
tick of the cron expression. A new export is written only when the result was
recomputed. Failed runs are logged and the previous result stays available.

Stop with Ctrl+C.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchedule(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "@every 1h", "Cron expression (standard 5-field or @every/@daily descriptors)")
	scheduleCmd.Flags().StringVar(&cronLocation, "timezone", "Local", "IANA time zone the cron expression is evaluated in")
}

func runSchedule(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cronLocation)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cronLocation, err)
	}

	runner, err := newRunner()
	if err != nil {
		return err
	}

	job := &scheduledRun{runner: runner, export: func(ctx context.Context, result *pipeline.Result) error {
		return exportDataset(ctx, cmd.OutOrStdout(), result, result.Records)
	}}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(cronSpec, func() { job.run(ctx) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronSpec, err)
	}

	log.Info().Str("cron", cronSpec).Str("timezone", loc.String()).Msg("Scheduler started")
	job.run(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	log.Info().Msg("Scheduler stopped")
	return nil
}

// scheduledRun runs the pipeline and exports each newly computed result once.
type scheduledRun struct {
	runner    *pipeline.Runner
	export    func(context.Context, *pipeline.Result) error
	lastRunID string
}

func (s *scheduledRun) run(ctx context.Context) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled run failed")
		return
	}
	if result.RunID == s.lastRunID {
		log.Debug().Str("run_id", result.RunID).Msg("Extracts unchanged; skipping export")
		return
	}
	if err := s.export(ctx, result); err != nil {
		log.Error().Err(err).Str("run_id", result.RunID).Msg("Scheduled export failed")
		return
	}
	s.lastRunID = result.RunID
	log.Info().Str("run_id", result.RunID).Int("records", len(result.Records)).Msg("Scheduled run exported")
}
