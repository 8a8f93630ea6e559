package volatility

import (
	"fmt"
	"math"

	"github.com/aristath/ballast/pkg/formulas"
)

// DefaultRollingWindow is the standard lookback for the plain
// rolling-window measure.
const DefaultRollingWindow = 30

// RollingVolatility computes the trailing annualized volatility of a
// portfolio value series: log returns, then a fixed-window standard
// deviation per observation. The output aligns with the values; the
// first window entries are NaN while the lookback fills.
func RollingVolatility(values []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("window must be at least 2, got %d", window)
	}
	if len(values) < window+1 {
		return nil, fmt.Errorf("need at least %d values for window %d, got %d", window+1, window, len(values))
	}

	returns := formulas.LogReturns(values)
	series := formulas.RollingVolatility(returns, window)

	out := make([]float64, len(values))
	out[0] = math.NaN()
	copy(out[1:], series)
	return out, nil
}
