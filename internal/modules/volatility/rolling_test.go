package volatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingVolatility_AlignsWithValues(t *testing.T) {
	// Constant 1% growth: every log return equals ln(1.01), so the
	// windowed standard deviation is zero once the lookback fills.
	values := make([]float64, 6)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] * 1.01
	}

	series, err := RollingVolatility(values, 3)
	require.NoError(t, err)
	require.Len(t, series, len(values))

	// First window entries are NaN while the lookback fills.
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(series[i]), "index %d", i)
	}
	for i := 3; i < len(series); i++ {
		assert.InDelta(t, 0.0, series[i], 1e-9, "index %d", i)
	}
}

func TestRollingVolatility_Annualizes(t *testing.T) {
	values := []float64{100, 102, 99, 103, 101, 104, 100}

	series, err := RollingVolatility(values, 3)
	require.NoError(t, err)

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns[i-1] = math.Log(values[i] / values[i-1])
	}

	// Check the last point against a hand-rolled sample stddev of the
	// trailing three log returns.
	tail := returns[len(returns)-3:]
	mean := (tail[0] + tail[1] + tail[2]) / 3
	variance := 0.0
	for _, r := range tail {
		variance += (r - mean) * (r - mean)
	}
	variance /= 3

	want := math.Sqrt(variance) * math.Sqrt(252)
	assert.InEpsilon(t, want, series[len(series)-1], 1e-9)
}

func TestRollingVolatility_WindowTooSmall(t *testing.T) {
	_, err := RollingVolatility([]float64{100, 101, 102}, 1)
	assert.Error(t, err)
}

func TestRollingVolatility_InsufficientValues(t *testing.T) {
	_, err := RollingVolatility([]float64{100, 101, 102}, 3)
	assert.Error(t, err)
}
