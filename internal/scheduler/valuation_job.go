package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/services"
)

// ValuationRunner computes weights for every enabled index on a date.
// Implemented by services.ValuationService.
type ValuationRunner interface {
	ValuateEnabled(ctx context.Context, valuationDate time.Time) ([]services.ValuationOutcome, []services.IndexFailure, error)
}

// ValuationJob runs the daily weight computation. The cron schedule
// restricts it to weekday evenings; index-specific holidays only thin
// out the return history, they do not block a run.
type ValuationJob struct {
	valuations ValuationRunner
	timeout    time.Duration
	log        zerolog.Logger
}

// NewValuationJob creates a new valuation job
func NewValuationJob(valuations ValuationRunner, log zerolog.Logger) *ValuationJob {
	return &ValuationJob{
		valuations: valuations,
		timeout:    10 * time.Minute,
		log:        log.With().Str("job", "valuation").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *ValuationJob) Name() string {
	return "valuation"
}

// Run valuates every enabled index for today
func (j *ValuationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	valuationDate := time.Now().UTC().Truncate(24 * time.Hour)

	j.log.Info().
		Time("valuation_date", valuationDate).
		Msg("Starting scheduled valuation")
	startTime := time.Now()

	outcomes, failures, err := j.valuations.ValuateEnabled(ctx, valuationDate)
	if err != nil {
		return fmt.Errorf("scheduled valuation failed: %w", err)
	}

	for _, failure := range failures {
		j.log.Error().
			Err(failure.Err).
			Str("index_id", failure.IndexID).
			Msg("Index valuation failed")
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Int("succeeded", len(outcomes)).
		Int("failed", len(failures)).
		Msg("Scheduled valuation completed")

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d indexes failed", len(failures), len(outcomes)+len(failures))
	}
	return nil
}
