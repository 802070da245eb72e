// =============================================================================
// Withdrawal Reconciler - Pipeline Runner
// =============================================================================
//
// This module orchestrates one reconciliation run:
//   1. Fingerprint both extracts (memo key)
//   2. Load the extracts
//   3. Normalize both tables
//   4. Reconcile transactions with legacy balances
//   5. Detect anomalies over the full relation
//   6. Aggregate the daily trend and its summary statistics
//
// Results are memoized by fingerprint for the configured TTL. A failed run
// leaves the previous result in place.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/withdrawal-reconciliation/internal/anomaly"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/cache"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/config"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/filter"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/logger"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/normalizer"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/reconciler"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/trend"
	"github.com/ginjaninja78/withdrawal-reconciliation/internal/types"
)

// maxLoggedParseErrors caps the parse errors logged individually per run.
const maxLoggedParseErrors = 5

// maxLoadAttempts bounds how often Run re-reads extracts that changed while
// they were being loaded.
const maxLoadAttempts = 3

// ErrSourceChanged is returned when the loaded extracts no longer match the
// fingerprint the run was keyed on.
var ErrSourceChanged = errors.New("extracts changed while loading")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one run. It is shared between callers through the
// memo and must be treated as read-only.
type Result struct {
	// RunID identifies the run that computed this result.
	RunID string

	// Fingerprint is the memo key the result was computed for.
	Fingerprint string

	ComputedAt time.Time

	// Columns are the transaction extract headers in file order.
	Columns []string

	Records   []types.ReconciledRecord
	Summary   reconciler.Summary
	Anomalies anomaly.Report
	Trend     []types.DailyTrendRow
	Stats     trend.Stats

	// ParseErrors are the non-fatal cell failures of both extracts.
	ParseErrors []*types.ParseError

	// Duration is how long the computation took.
	Duration time.Duration
}

// FilterColumns returns every column a filter can address.
func (r *Result) FilterColumns() []string {
	return filter.New(r.Columns).Columns()
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes the pipeline against a Source.
type Runner struct {
	source     Source
	columns    config.ColumnNames
	normalizer *normalizer.Normalizer
	excluded   []time.Time
	memo       *cache.Memo[*Result]
	now        func() time.Time
}

// NewRunner creates a Runner.
//
// PARAMETERS:
//   - cfg: The main configuration (columns, layout, excluded dates, TTL).
//   - source: Where the extracts come from.
//
// RETURNS:
//   - A new Runner, or an error if the excluded trend dates are invalid.
func NewRunner(cfg *config.MainConfig, source Source) (*Runner, error) {
	excluded, err := cfg.ExcludedDates()
	if err != nil {
		return nil, err
	}
	return &Runner{
		source:     source,
		columns:    cfg.Transactions.Columns,
		normalizer: normalizer.New(cfg),
		excluded:   excluded,
		memo:       cache.New[*Result](cfg.Cache.TTL),
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source of the runner and its memo.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	r.memo.WithClock(now)
	return r
}

// Run returns the result for the current extracts, computing it unless a
// fresh memoized result for the same content exists. When the extracts change
// between fingerprinting and loading, Run starts over with the new content.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		var result *Result
		result, err = r.run(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrSourceChanged) {
			return nil, err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Extracts changed while loading")
	}
	return nil, err
}

func (r *Runner) run(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx)

	key, err := r.source.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint extracts: %w", err)
	}

	result, hit, err := r.memo.GetOrCompute(ctx, key, func(ctx context.Context) (*Result, error) {
		return r.compute(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		log.Debug().Str("run_id", result.RunID).Msg("Using memoized result")
	}
	return result, nil
}

// Last returns the most recent successful result, if any.
func (r *Runner) Last() (*Result, bool) {
	return r.memo.Last()
}

// Invalidate forces the next Run to recompute.
func (r *Runner) Invalidate() {
	r.memo.Invalidate()
}

// Filter runs the pipeline and applies spec to the full relation. Anomalies
// and trend in the returned Result still describe the full relation.
func (r *Runner) Filter(ctx context.Context, spec filter.Spec) (*Result, filter.Result, error) {
	result, err := r.Run(ctx)
	if err != nil {
		return nil, filter.Result{}, err
	}
	return result, filter.New(result.Columns).Apply(result.Records, spec), nil
}

// compute runs every stage. It never touches the memo.
func (r *Runner) compute(ctx context.Context, key string) (*Result, error) {
	startTime := r.now()
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()

	log.Info().Msg("Starting reconciliation run")

	extracts, err := r.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if extracts.Fingerprint != "" && extracts.Fingerprint != key {
		return nil, fmt.Errorf("%w: expected %s, loaded %s", ErrSourceChanged, key, extracts.Fingerprint)
	}
	log.Debug().
		Int("transactions", len(extracts.Transactions.Rows)).
		Int("legacy", len(extracts.Legacy.Rows)).
		Msg("Extracts loaded")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transactions, txErrs, err := r.normalizer.Transactions(extracts.Transactions)
	if err != nil {
		return nil, err
	}
	legacy, legacyErrs, err := r.normalizer.Legacy(extracts.Legacy)
	if err != nil {
		return nil, err
	}

	parseErrs := append(append([]*types.ParseError{}, txErrs...), legacyErrs...)
	if len(parseErrs) > 0 {
		log.Warn().Int("count", len(parseErrs)).Msg("Cells could not be parsed and were treated as absent")
		for i, pe := range parseErrs {
			if i == maxLoggedParseErrors {
				break
			}
			log.Warn().Err(pe).Msg("Parse error")
		}
	}

	records, summary := reconciler.Reconcile(transactions, legacy)
	log.Info().
		Int("records", summary.TotalRecords).
		Int("matched", summary.MatchedRecords).
		Int("unmatched", summary.UnmatchedRecords).
		Int("legacy_duplicates", summary.LegacyDuplicates).
		Msg("Reconciled")

	tx := extracts.Transactions
	anomalies := anomaly.Detect(records, anomaly.Columns{
		District:    tx.HasColumn(r.columns.District),
		Coordinates: tx.HasColumn(r.columns.Latitude) && tx.HasColumn(r.columns.Longitude),
	})
	rows := trend.Aggregate(records)
	stats := trend.Summarize(rows, r.excluded)

	result := &Result{
		RunID:       runID,
		Fingerprint: key,
		ComputedAt:  r.now(),
		Columns:     extracts.Transactions.Headers,
		Records:     records,
		Summary:     summary,
		Anomalies:   anomalies,
		Trend:       rows,
		Stats:       stats,
		ParseErrors: parseErrs,
	}
	result.Duration = result.ComputedAt.Sub(startTime)

	log.Info().
		Int("trend_days", len(rows)-1).
		Int("anomalies", len(anomalies.Findings)).
		Dur("duration", result.Duration).
		Msg("Reconciliation run complete")

	return result, nil
}
