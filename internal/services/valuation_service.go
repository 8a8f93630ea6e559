// Package services provides services that coordinate multiple modules.
//
// ValuationService drives a full valuation: load the index definition,
// run the weight engine, persist the run, write the weight report, and
// announce the outcome on the event bus.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
	"github.com/aristath/ballast/internal/modules/indexes"
)

// Valuator runs the weight engine for a prepared request.
type Valuator interface {
	Valuate(ctx context.Context, req engine.ValuationRequest) (*engine.ValuationResult, error)
}

// RunStore persists completed valuation runs.
type RunStore interface {
	Save(ctx context.Context, result *engine.ValuationResult) (string, error)
}

// ReportWriter emits weight report files.
type ReportWriter interface {
	Write(result *engine.ValuationResult, scaled bool) (string, error)
}

// DefinitionSource loads stored index definitions.
type DefinitionSource interface {
	Get(ctx context.Context, id string) (*indexes.Definition, error)
	List(ctx context.Context, enabledOnly bool) ([]*indexes.Definition, error)
}

// ValuationOutcome is the record of one completed valuation.
type ValuationOutcome struct {
	RunID      string                  `json:"run_id"`
	ReportPath string                  `json:"report_path"`
	Result     *engine.ValuationResult `json:"result"`
}

// IndexFailure pairs an index with the error that stopped its valuation.
type IndexFailure struct {
	IndexID string `json:"index_id"`
	Err     error  `json:"-"`
}

// ValuationService coordinates definitions, engine, run store, reports
// and the event bus.
type ValuationService struct {
	definitions DefinitionSource
	engine      Valuator
	runs        RunStore
	reports     ReportWriter
	bus         *events.Bus
	log         zerolog.Logger
}

// NewValuationService creates a new valuation coordinator
func NewValuationService(
	definitions DefinitionSource,
	valuator Valuator,
	runs RunStore,
	reports ReportWriter,
	bus *events.Bus,
	log zerolog.Logger,
) *ValuationService {
	return &ValuationService{
		definitions: definitions,
		engine:      valuator,
		runs:        runs,
		reports:     reports,
		bus:         bus,
		log:         log.With().Str("component", "valuation").Logger(),
	}
}

// ValuateIndex runs one index for one valuation date. Disabled
// definitions can still be valuated on demand; only the scheduler
// restricts itself to enabled ones.
func (s *ValuationService) ValuateIndex(ctx context.Context, indexID string, valuationDate time.Time) (*ValuationOutcome, error) {
	def, err := s.definitions.Get(ctx, indexID)
	if err != nil {
		return nil, fmt.Errorf("failed to load index %s: %w", indexID, err)
	}

	dateStr := valuationDate.Format(calendar.DateLayout)

	result, err := s.engine.Valuate(ctx, def.ToValuationRequest(valuationDate))
	if err != nil {
		s.announceFailure(indexID, dateStr, err)
		return nil, fmt.Errorf("valuation of %s at %s failed: %w", indexID, dateStr, err)
	}

	runID, err := s.runs.Save(ctx, result)
	if err != nil {
		s.announceFailure(indexID, dateStr, err)
		return nil, fmt.Errorf("failed to persist run for %s: %w", indexID, err)
	}

	reportPath, err := s.reports.Write(result, true)
	if err != nil {
		s.announceFailure(indexID, dateStr, err)
		return nil, fmt.Errorf("failed to write report for %s: %w", indexID, err)
	}

	s.bus.EmitTyped(events.ValuationCompleted, "valuation", &events.ValuationCompletedData{
		RunID:         runID,
		IndexID:       indexID,
		ValuationDate: dateStr,
		ScalingFactor: result.Result.ScalingFactor,
		AssetCount:    len(result.AssetIDs),
	})

	s.log.Info().
		Str("index_id", indexID).
		Str("valuation_date", dateStr).
		Str("run_id", runID).
		Float64("scaling_factor", result.Result.ScalingFactor).
		Msg("Valuation completed")

	return &ValuationOutcome{
		RunID:      runID,
		ReportPath: reportPath,
		Result:     result,
	}, nil
}

// ValuateEnabled runs every enabled index for the date, sequentially
// and continuing past individual failures.
func (s *ValuationService) ValuateEnabled(ctx context.Context, valuationDate time.Time) ([]ValuationOutcome, []IndexFailure, error) {
	defs, err := s.definitions.List(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list enabled indexes: %w", err)
	}

	var outcomes []ValuationOutcome
	var failures []IndexFailure
	for _, def := range defs {
		outcome, err := s.ValuateIndex(ctx, def.ID, valuationDate)
		if err != nil {
			s.log.Error().Err(err).Str("index_id", def.ID).Msg("Index valuation failed")
			failures = append(failures, IndexFailure{IndexID: def.ID, Err: err})
			continue
		}
		outcomes = append(outcomes, *outcome)
	}
	return outcomes, failures, nil
}

func (s *ValuationService) announceFailure(indexID, dateStr string, err error) {
	s.bus.EmitTyped(events.ValuationFailed, "valuation", &events.ValuationFailedData{
		IndexID:       indexID,
		ValuationDate: dateStr,
		Error:         err.Error(),
	})
}
