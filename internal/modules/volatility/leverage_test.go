package volatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeverageFactors_ClipAndLag(t *testing.T) {
	params := LeverageParams{TargetVolatility: 0.1, MaxLeverage: 1.5, LagDays: 1}
	realized := []float64{0.2, 0.1, 0.05, 0.4}

	applied, err := LeverageFactors(realized, params)
	require.NoError(t, err)

	// Raw factors 0.5, 1.0, 2.0 (clipped to 1.5), 0.25 shift one day.
	assert.Equal(t, []float64{1.0, 0.5, 1.0, 1.5}, applied)
}

func TestLeverageFactors_NoLag(t *testing.T) {
	params := LeverageParams{TargetVolatility: 0.1, MaxLeverage: 2.0, LagDays: 0}
	realized := []float64{0.2, 0.05}

	applied, err := LeverageFactors(realized, params)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 2.0}, applied)
}

func TestLeverageFactors_UndefinedVolatilityFallsBack(t *testing.T) {
	params := LeverageParams{TargetVolatility: 0.1, MaxLeverage: 1.5, LagDays: 1}
	realized := []float64{math.NaN(), 0.2, 0.1}

	applied, err := LeverageFactors(realized, params)
	require.NoError(t, err)

	// The NaN factor lands on day 1 after the shift and falls back.
	assert.Equal(t, []float64{1.0, 1.0, 0.5}, applied)
}

func TestLeverageFactors_ZeroVolatilityCapped(t *testing.T) {
	params := LeverageParams{TargetVolatility: 0.1, MaxLeverage: 1.5, LagDays: 0}

	applied, err := LeverageFactors([]float64{0}, params)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, applied)
}

func TestLeverageFactors_InvalidParams(t *testing.T) {
	_, err := LeverageFactors([]float64{0.1}, LeverageParams{TargetVolatility: 0, MaxLeverage: 1.5})
	assert.Error(t, err)

	_, err = LeverageFactors([]float64{0.1}, LeverageParams{TargetVolatility: 0.1, MaxLeverage: 0})
	assert.Error(t, err)

	_, err = LeverageFactors([]float64{0.1}, LeverageParams{TargetVolatility: 0.1, MaxLeverage: 1.5, LagDays: -1})
	assert.Error(t, err)
}

func TestDefaultLeverageParams(t *testing.T) {
	params := DefaultLeverageParams(0.12)
	require.NoError(t, params.Validate())
	assert.InEpsilon(t, 0.12, params.TargetVolatility, 1e-9)
	assert.InEpsilon(t, 1.5, params.MaxLeverage, 1e-9)
	assert.Equal(t, 1, params.LagDays)
}
