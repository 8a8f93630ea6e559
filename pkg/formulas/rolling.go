package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RollingVolatility calculates the trailing annualized volatility series
// over a fixed window of daily returns.
//
// Args:
//   returns: Array of daily returns
//   window: Lookback length in observations (typically 30 or 90)
//
// Returns:
//   One annualized volatility per input observation; the first window-1
//   entries are NaN (insufficient lookback), matching talib conventions.
func RollingVolatility(returns []float64, window int) []float64 {
	if window < 2 || len(returns) < window {
		return nil
	}

	stddev := talib.StdDev(returns, window, 1.0)

	out := make([]float64, len(stddev))
	for i, s := range stddev {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = s * math.Sqrt(TradingDaysPerYear)
	}

	return out
}

// TrailingVolatility calculates the annualized volatility of the most
// recent window observations, or nil when history is insufficient.
func TrailingVolatility(returns []float64, window int) *float64 {
	series := RollingVolatility(returns, window)
	if len(series) == 0 {
		return nil
	}

	last := series[len(series)-1]
	if math.IsNaN(last) {
		return nil
	}

	return &last
}
