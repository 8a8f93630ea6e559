package scenarios

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() []Asset {
	return []Asset{
		{ID: "EQ", Class: AssetClassEquity, Volatility: 0.20},
		{ID: "RT", Class: AssetClassRate, Volatility: 0.05},
		{ID: "CASH", Class: AssetClassCash},
	}
}

func TestInverseVolWeights_BaselineScenario(t *testing.T) {
	scenario := StandardScenarios()[0]

	weights, err := InverseVolWeights(testAssets(), scenario)
	require.NoError(t, err)

	// 1/0.20 = 5 and 1/0.05 = 20 normalize to 0.2 and 0.8; cash is
	// excluded entirely.
	require.Len(t, weights, 2)
	assert.InEpsilon(t, 0.2, weights["EQ"], 1e-9)
	assert.InEpsilon(t, 0.8, weights["RT"], 1e-9)
}

func TestInverseVolWeights_RateMultiplierDeflatesRates(t *testing.T) {
	// Scenario b deflates the rate bucket by 10: 5 vs 2 normalize to
	// 5/7 and 2/7.
	scenario := StandardScenarios()[1]

	weights, err := InverseVolWeights(testAssets(), scenario)
	require.NoError(t, err)

	assert.InEpsilon(t, 5.0/7.0, weights["EQ"], 1e-9)
	assert.InEpsilon(t, 2.0/7.0, weights["RT"], 1e-9)
}

func TestInverseVolWeights_SkipsUnusableVolatility(t *testing.T) {
	assets := []Asset{
		{ID: "EQ", Class: AssetClassEquity, Volatility: 0.2},
		{ID: "BAD", Class: AssetClassOther, Volatility: 0},
		{ID: "NAN", Class: AssetClassOther, Volatility: math.NaN()},
	}

	weights, err := InverseVolWeights(assets, StandardScenarios()[0])
	require.NoError(t, err)

	require.Len(t, weights, 1)
	assert.InEpsilon(t, 1.0, weights["EQ"], 1e-9)
}

func TestInverseVolWeights_NoWeighableAssets(t *testing.T) {
	assets := []Asset{{ID: "CASH", Class: AssetClassCash, Volatility: 0.01}}

	_, err := InverseVolWeights(assets, StandardScenarios()[0])
	assert.ErrorIs(t, err, ErrNoWeighableAssets)
}

func TestDetect_PicksGeneratingScenario(t *testing.T) {
	assets := testAssets()

	for _, scenario := range StandardScenarios() {
		model, err := InverseVolWeights(assets, scenario)
		require.NoError(t, err)

		detection, err := Detect(assets, model)
		require.NoError(t, err)

		assert.Equal(t, scenario.Name, detection.Scenario.Name, "weights from scenario %s", scenario.Name)
		assert.InDelta(t, 0.0, detection.Distance, 1e-9)
		assert.Len(t, detection.Distances, 4)
	}
}

func TestDetect_NormalizesAroundCash(t *testing.T) {
	assets := testAssets()

	// Scenario a weights diluted to 50% exposure with the rest in cash
	// still detect as scenario a after normalization.
	observed := map[string]float64{
		"EQ":   0.10,
		"RT":   0.40,
		"CASH": 0.50,
	}

	detection, err := Detect(assets, observed)
	require.NoError(t, err)
	assert.Equal(t, "a", detection.Scenario.Name)
	assert.InDelta(t, 0.0, detection.Distance, 1e-9)
}

func TestDetect_DefensiveScenarioScale(t *testing.T) {
	assets := testAssets()

	model, err := InverseVolWeights(assets, StandardScenarios()[3])
	require.NoError(t, err)

	detection, err := Detect(assets, model)
	require.NoError(t, err)
	require.Equal(t, "d", detection.Scenario.Name)
	assert.InEpsilon(t, 0.75, detection.Scenario.WeightScale, 1e-9)

	scaled := detection.Scenario.ApplyScale(detection.ModelWeights)
	for id, w := range detection.ModelWeights {
		assert.InEpsilon(t, w*0.75, scaled[id], 1e-9)
	}
}

func TestDetect_AllCashObserved(t *testing.T) {
	_, err := Detect(testAssets(), map[string]float64{"CASH": 1.0})
	assert.ErrorIs(t, err, ErrNoWeighableAssets)

	_, err = Detect(testAssets(), nil)
	assert.Error(t, err)
}
