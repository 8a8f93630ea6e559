package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// ReturnHistoryProvider supplies daily return series for a set of assets.
// The matrix is ordered like assetIDs, each series oldest observation
// first and ending at or immediately before the valuation date. minLength
// is a floor, not a cap: providers return the full available history so
// momentum ranking can accumulate over all of it.
type ReturnHistoryProvider interface {
	ReturnMatrix(ctx context.Context, assetIDs []string, valuationDate time.Time, minLength int) ([][]float64, error)
}

// FundingRateSource answers the money-market rate observed on a date.
type FundingRateSource interface {
	FundingRate(ctx context.Context, date time.Time) (float64, error)
}

// CalendarSource loads a business-day calendar by name.
type CalendarSource interface {
	Load(ctx context.Context, name string) (*calendar.Calendar, error)
}

// Service wires the pure computation to its collaborators: return
// history, funding rates and calendars come from outside, everything
// between them and the result is Synthesize.
type Service struct {
	history   ReturnHistoryProvider
	funding   FundingRateSource
	calendars CalendarSource
	params    Params
	log       zerolog.Logger
}

// NewService creates an engine service with the given default estimator
// parameters. Individual requests may override them.
func NewService(
	history ReturnHistoryProvider,
	funding FundingRateSource,
	calendars CalendarSource,
	params Params,
	log zerolog.Logger,
) *Service {
	return &Service{
		history:   history,
		funding:   funding,
		calendars: calendars,
		params:    params,
		log:       log.With().Str("module", "engine").Logger(),
	}
}

// DefaultParams returns the parameters the service falls back to when a
// request carries no override.
func (s *Service) DefaultParams() Params {
	return s.params
}

// Valuate gathers the inputs for one valuation date and runs the weight
// computation. All I/O happens here, before entry into the pure core, so
// the result depends only on what the collaborators returned.
func (s *Service) Valuate(ctx context.Context, req ValuationRequest) (*ValuationResult, error) {
	params := s.params
	if req.Params != nil {
		params = *req.Params
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if len(req.AssetIDs) != req.Config.AssetCount() {
		return nil, fmt.Errorf("%w: request names %d assets, configuration describes %d",
			ErrConfigurationMismatch, len(req.AssetIDs), req.Config.AssetCount())
	}

	s.log.Debug().
		Str("index_id", req.IndexID).
		Time("valuation_date", req.ValuationDate).
		Int("assets", len(req.AssetIDs)).
		Msg("Starting valuation")

	returns, err := s.history.ReturnMatrix(ctx, req.AssetIDs, req.ValuationDate, params.RequiredHistory())
	if err != nil {
		return nil, fmt.Errorf("failed to load return history: %w", err)
	}
	if len(returns) != len(req.AssetIDs) {
		return nil, fmt.Errorf("history provider returned %d series for %d assets", len(returns), len(req.AssetIDs))
	}

	var drags []float64
	if req.Config.IsMomentumIndex && req.Config.FundingAdjusted {
		drags, err = s.fundingDrags(ctx, req, len(returns[0]))
		if err != nil {
			return nil, err
		}
	}

	result, err := Synthesize(returns, req.Config, drags, params)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("index_id", req.IndexID).
		Time("valuation_date", req.ValuationDate).
		Float64("scaling_factor", result.ScalingFactor).
		Float64("sum_initial_weights", result.SumInitialWeights).
		Msg("Valuation complete")

	return &ValuationResult{
		IndexID:       req.IndexID,
		ValuationDate: req.ValuationDate,
		AssetIDs:      req.AssetIDs,
		Params:        params,
		Result:        result,
	}, nil
}

// fundingDrags walks one business day per return observation back from
// the valuation date and prices each step at the funding rate observed on
// the step's prior business day, ACT/360.
func (s *Service) fundingDrags(ctx context.Context, req ValuationRequest, observations int) ([]float64, error) {
	if observations == 0 {
		return nil, nil
	}
	cal, err := s.calendars.Load(ctx, req.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar %q: %w", req.CalendarName, err)
	}

	pairs := cal.BusinessDayPairs(req.ValuationDate, observations)
	rates := make([]float64, len(pairs))
	for k, pair := range pairs {
		rate, err := s.funding.FundingRate(ctx, pair.Prior)
		if err != nil {
			return nil, fmt.Errorf("failed to load funding rate for %s: %w", pair.Prior.Format(calendar.DateLayout), err)
		}
		rates[k] = rate
	}
	return FundingDrags(pairs, rates)
}
