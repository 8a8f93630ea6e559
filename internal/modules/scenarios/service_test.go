package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/pkg/formulas"
)

type stubHistory struct {
	matrix   [][]float64
	err      error
	asked    []string
	minAsked int
}

func (s *stubHistory) ReturnMatrix(_ context.Context, assetIDs []string, _ time.Time, minLength int) ([][]float64, error) {
	s.asked = assetIDs
	s.minAsked = minLength
	return s.matrix, s.err
}

func flatReturns(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	// A single deviation keeps the stddev positive.
	out[n-1] = value + 0.01
	return out
}

func TestService_Detect_ResolvesMissingVolatilities(t *testing.T) {
	history := &stubHistory{matrix: [][]float64{flatReturns(90, 0.001)}}
	service := NewService(history, zerolog.Nop())

	assets := []Asset{
		{ID: "EQ", Class: AssetClassEquity},
		{ID: "RT", Class: AssetClassRate, Volatility: 0.05},
		{ID: "CASH", Class: AssetClassCash},
	}
	observed := map[string]float64{"EQ": 0.5, "RT": 0.5}

	detection, err := service.Detect(context.Background(), DetectRequest{
		ValuationDate: time.Now(),
		Assets:        assets,
		Observed:      observed,
	})
	require.NoError(t, err)
	require.NotNil(t, detection)

	// Only the asset without a volatility hits the history store, with
	// the default lookback.
	assert.Equal(t, []string{"EQ"}, history.asked)
	assert.Equal(t, DefaultVolatilityWindow, history.minAsked)

	// The stub series is long enough for a defined trailing volatility.
	require.NotNil(t, formulas.TrailingVolatility(history.matrix[0], DefaultVolatilityWindow))
	assert.Contains(t, detection.Distances, "a")
}

func TestService_Detect_AllVolatilitiesProvided(t *testing.T) {
	history := &stubHistory{err: errors.New("must not be called")}
	service := NewService(history, zerolog.Nop())

	detection, err := service.Detect(context.Background(), DetectRequest{
		ValuationDate: time.Now(),
		Assets: []Asset{
			{ID: "EQ", Class: AssetClassEquity, Volatility: 0.2},
			{ID: "RT", Class: AssetClassRate, Volatility: 0.05},
		},
		Observed: map[string]float64{"EQ": 0.2, "RT": 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", detection.Scenario.Name)
	assert.Nil(t, history.asked)
}

func TestService_Detect_HistoryError(t *testing.T) {
	history := &stubHistory{err: errors.New("no history")}
	service := NewService(history, zerolog.Nop())

	_, err := service.Detect(context.Background(), DetectRequest{
		ValuationDate: time.Now(),
		Assets:        []Asset{{ID: "EQ", Class: AssetClassEquity}},
		Observed:      map[string]float64{"EQ": 1.0},
	})
	assert.Error(t, err)
}

func TestService_Detect_NoAssets(t *testing.T) {
	service := NewService(&stubHistory{}, zerolog.Nop())

	_, err := service.Detect(context.Background(), DetectRequest{})
	assert.Error(t, err)
}

func TestService_Detect_CustomWindow(t *testing.T) {
	history := &stubHistory{matrix: [][]float64{flatReturns(30, 0.002)}}
	service := NewService(history, zerolog.Nop())

	_, err := service.Detect(context.Background(), DetectRequest{
		ValuationDate: time.Now(),
		Window:        30,
		Assets: []Asset{
			{ID: "EQ", Class: AssetClassEquity},
			{ID: "RT", Class: AssetClassRate, Volatility: 0.05},
		},
		Observed: map[string]float64{"EQ": 0.5, "RT": 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 30, history.minAsked)
}
