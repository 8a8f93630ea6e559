package engine

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Covariance estimates the sample covariance matrix of daily returns over the
// trailing window. Only the last `window` observations of each series enter
// the estimate; anything older is ignored. The result is a daily covariance,
// not annualized; callers scale by TradingDaysPerYear where needed.
//
// Sample covariance uses the N-1 denominator throughout.
func Covariance(returns [][]float64, window int) (*mat.SymDense, error) {
	n := len(returns)
	if n == 0 {
		return nil, fmt.Errorf("no return series provided")
	}
	if window < 2 {
		return nil, fmt.Errorf("%w: covariance window must be at least 2, got %d", ErrConfigurationMismatch, window)
	}

	length := len(returns[0])
	for i, series := range returns {
		if len(series) != length {
			return nil, fmt.Errorf("return matrix is ragged: series 0 has %d observations, series %d has %d", length, i, len(series))
		}
	}
	if length < window {
		return nil, fmt.Errorf("%w: need %d observations for covariance window, have %d", ErrInsufficientHistory, window, length)
	}

	// Trailing window: most recent observations sit at the end of each series.
	tails := make([][]float64, n)
	for i, series := range returns {
		tails[i] = series[length-window:]
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, stat.Covariance(tails[i], tails[j], nil))
		}
	}
	return cov, nil
}
