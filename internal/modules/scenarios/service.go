package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ballast/pkg/formulas"
)

// DefaultVolatilityWindow is the trailing lookback for asset
// volatilities when the caller does not supply them.
const DefaultVolatilityWindow = 90

// ReturnHistorySource provides per-asset daily return history ending at
// a valuation date.
type ReturnHistorySource interface {
	ReturnMatrix(ctx context.Context, assetIDs []string, valuationDate time.Time, minLength int) ([][]float64, error)
}

// Service resolves asset volatilities from stored history and runs
// scenario detection.
type Service struct {
	history ReturnHistorySource
	log     zerolog.Logger
}

// NewService creates a new scenario detection service
func NewService(history ReturnHistorySource, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		log:     log.With().Str("component", "scenarios").Logger(),
	}
}

// DetectRequest describes one detection: the assets involved, the
// observed weights to classify, and the volatility lookback. Assets
// with zero volatility get theirs computed from history as of the
// valuation date.
type DetectRequest struct {
	ValuationDate time.Time
	Window        int
	Assets        []Asset
	Observed      map[string]float64
}

// Detect fills in missing asset volatilities from the return history
// and classifies the observed weights.
func (s *Service) Detect(ctx context.Context, req DetectRequest) (*Detection, error) {
	if len(req.Assets) == 0 {
		return nil, fmt.Errorf("no assets given")
	}

	window := req.Window
	if window <= 0 {
		window = DefaultVolatilityWindow
	}

	assets, err := s.resolveVolatilities(ctx, req.Assets, req.ValuationDate, window)
	if err != nil {
		return nil, err
	}

	detection, err := Detect(assets, req.Observed)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("scenario", detection.Scenario.Name).
		Float64("distance", detection.Distance).
		Int("assets", len(assets)).
		Msg("Detected volatility scenario")
	return detection, nil
}

// resolveVolatilities computes trailing volatilities for the assets
// that arrived without one. Cash assets never need a volatility.
func (s *Service) resolveVolatilities(ctx context.Context, assets []Asset, valuationDate time.Time, window int) ([]Asset, error) {
	var missing []string
	for _, asset := range assets {
		if asset.Class != AssetClassCash && asset.Volatility <= 0 {
			missing = append(missing, asset.ID)
		}
	}
	if len(missing) == 0 {
		return assets, nil
	}

	matrix, err := s.history.ReturnMatrix(ctx, missing, valuationDate, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load return history: %w", err)
	}

	vols := make(map[string]float64, len(missing))
	for i, id := range missing {
		vol := formulas.TrailingVolatility(matrix[i], window)
		if vol == nil {
			return nil, fmt.Errorf("insufficient history for trailing volatility of %s", id)
		}
		vols[id] = *vol
	}

	resolved := make([]Asset, len(assets))
	copy(resolved, assets)
	for i := range resolved {
		if vol, ok := vols[resolved[i].ID]; ok {
			resolved[i].Volatility = vol
		}
	}
	return resolved, nil
}
