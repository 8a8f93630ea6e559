package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/ballast/pkg/formulas"
)

// syntheticReturns builds a deterministic N x L return matrix with enough
// cross-sectional and temporal structure to keep covariances away from
// degenerate values.
func syntheticReturns(n, length int) [][]float64 {
	returns := make([][]float64, n)
	for i := 0; i < n; i++ {
		series := make([]float64, length)
		for k := 0; k < length; k++ {
			series[k] = 0.01*math.Sin(float64(k+1)*float64(i+2)/7.0) + 0.002*math.Cos(float64(k+1)/3.0)
		}
		returns[i] = series
	}
	return returns
}

func staticConfig(n int) IndexConfig {
	contributions := make([]float64, n)
	for i := range contributions {
		contributions[i] = 1.0 / float64(n)
	}
	return IndexConfig{
		StaticContributions: contributions,
		VolatilityTarget:    0.10,
	}
}

func TestSynthesize_WeightSumInvariant(t *testing.T) {
	cfg := staticConfig(4)
	returns := syntheticReturns(4, 80)

	result, err := Synthesize(returns, cfg, nil, DefaultParams())
	require.NoError(t, err)

	expected := 0.0
	for i, c := range result.Contributions {
		expected += c / result.AssetVolatilities[i]
	}
	expected *= cfg.VolatilityTarget

	assert.InEpsilon(t, expected, result.SumInitialWeights, 1e-9)
}

func TestSynthesize_ScalingRecoversTarget(t *testing.T) {
	cfg := staticConfig(3)
	returns := syntheticReturns(3, 75)

	result, err := Synthesize(returns, cfg, nil, DefaultParams())
	require.NoError(t, err)

	bound := math.Max(result.PortfolioVolatilityShort, result.PortfolioVolatilityLong)
	assert.InEpsilon(t, cfg.VolatilityTarget, result.ScalingFactor*bound, 1e-12)
	assert.LessOrEqual(t, result.ScalingFactor*result.PortfolioVolatilityShort, cfg.VolatilityTarget*(1+1e-12))
	assert.LessOrEqual(t, result.ScalingFactor*result.PortfolioVolatilityLong, cfg.VolatilityTarget*(1+1e-12))
}

func TestSynthesize_SquaredEstimateIsExactSquare(t *testing.T) {
	cfg := staticConfig(3)
	returns := syntheticReturns(3, 90)

	result, err := Synthesize(returns, cfg, nil, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, result.RealizedVarianceEstimate*result.RealizedVarianceEstimate,
		result.RealizedVarianceEstimateSquared)
}

func TestSynthesize_HistoryThreshold(t *testing.T) {
	cfg := staticConfig(2)

	// One observation short of LongWindow+1 fails, exactly enough passes.
	_, err := Synthesize(syntheticReturns(2, 62), cfg, nil, DefaultParams())
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = Synthesize(syntheticReturns(2, 63), cfg, nil, DefaultParams())
	assert.NoError(t, err)
}

func TestSynthesize_Deterministic(t *testing.T) {
	cfg := IndexConfig{
		IsMomentumIndex:         true,
		Ranked:                  []bool{true, true, false},
		RankToContributionTable: []float64{0.5, 0.2},
		StaticContributions:     []float64{0.1, 0.1, 0.3},
		VolatilityTarget:        0.10,
		FundingAdjusted:         true,
	}
	returns := syntheticReturns(3, 70)
	drags := make([]float64, 70)
	for k := range drags {
		drags[k] = 0.0001
	}

	first, err := Synthesize(returns, cfg, drags, DefaultParams())
	require.NoError(t, err)
	second, err := Synthesize(returns, cfg, drags, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSynthesize_MomentumReassignsContributions(t *testing.T) {
	cfg := IndexConfig{
		IsMomentumIndex:         true,
		Ranked:                  []bool{true, false, true},
		RankToContributionTable: []float64{0.5, 0.2},
		StaticContributions:     []float64{0.1, 0.3, 0.1},
		VolatilityTarget:        0.10,
	}

	// Asset 2 trends up hard, asset 0 trends down; asset 1 is not ranked.
	returns := syntheticReturns(3, 70)
	for k := range returns[2] {
		returns[2][k] += 0.005
		returns[0][k] -= 0.005
	}

	result, err := Synthesize(returns, cfg, nil, DefaultParams())
	require.NoError(t, err)
	require.Len(t, result.Ranking, 2)

	assert.Equal(t, 2, result.Ranking[0].Asset)
	assert.Equal(t, 0, result.Ranking[1].Asset)
	assert.Equal(t, 0.2, result.Contributions[0])
	assert.Equal(t, 0.3, result.Contributions[1])
	assert.Equal(t, 0.5, result.Contributions[2])
}

func TestSynthesize_FloorLiftsDegenerateVolatility(t *testing.T) {
	cfg := staticConfig(2)
	returns := syntheticReturns(2, 70)
	for k := range returns[1] {
		returns[1][k] = 0.0 // zero variance
	}

	params := DefaultParams()
	result, err := Synthesize(returns, cfg, nil, params)
	require.NoError(t, err)

	assert.Equal(t, params.VolatilityFloor, result.AssetVolatilities[1])
	assert.InEpsilon(t, cfg.VolatilityTarget*cfg.StaticContributions[1]/params.VolatilityFloor,
		result.InitialWeights[1], 1e-12)
}

func TestSynthesize_RankTableMismatch(t *testing.T) {
	cfg := IndexConfig{
		IsMomentumIndex:         true,
		Ranked:                  []bool{true, true},
		RankToContributionTable: []float64{0.5, 0.3, 0.2},
		StaticContributions:     []float64{0.5, 0.5},
		VolatilityTarget:        0.10,
	}

	_, err := Synthesize(syntheticReturns(2, 70), cfg, nil, DefaultParams())
	assert.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestSynthesizeFromCovariances_DiagonalScenario(t *testing.T) {
	long := mat.NewSymDense(3, nil)
	long.SetSym(0, 0, 0.0004)
	long.SetSym(1, 1, 0.0009)
	long.SetSym(2, 2, 0.0001)

	short := mat.NewSymDense(3, nil)
	short.SetSym(0, 0, 0.0004)
	short.SetSym(1, 1, 0.0009)
	short.SetSym(2, 2, 0.0001)

	contributions := []float64{0.3, 0.3, 0.4}
	result, err := SynthesizeFromCovariances(short, long, contributions, 0.10, DefaultParams())
	require.NoError(t, err)

	for i, variance := range []float64{0.0004, 0.0009, 0.0001} {
		expected := 0.10 * contributions[i] / math.Sqrt(variance*formulas.TradingDaysPerYear)
		assert.InDelta(t, expected, result.InitialWeights[i], 1e-12)
	}
	assert.InDelta(t, 0.0945, result.InitialWeights[0], 1e-4)
	assert.InDelta(t, 0.0630, result.InitialWeights[1], 1e-4)
	assert.InDelta(t, 0.2520, result.InitialWeights[2], 1e-4)
}

func TestSynthesizeFromCovariances_DimensionMismatch(t *testing.T) {
	short := mat.NewSymDense(2, nil)
	long := mat.NewSymDense(3, nil)

	_, err := SynthesizeFromCovariances(short, long, []float64{0.5, 0.5}, 0.10, DefaultParams())
	assert.ErrorIs(t, err, ErrConfigurationMismatch)
}

func TestSynthesize_RaggedMatrix(t *testing.T) {
	cfg := staticConfig(2)
	returns := [][]float64{
		make([]float64, 70),
		make([]float64, 69),
	}

	_, err := Synthesize(returns, cfg, nil, DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}
