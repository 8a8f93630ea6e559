package volatility

import (
	"fmt"
	"math"

	"github.com/aristath/ballast/pkg/formulas"
)

// GARCHParams controls the GARCH-style variance recursion
// var ← beta·var + alpha·logret².
type GARCHParams struct {
	// Alpha weights the new squared log return.
	Alpha float64

	// Beta weights the previous variance.
	Beta float64
}

// DefaultGARCHParams returns the standard recursion weights.
func DefaultGARCHParams() GARCHParams {
	return GARCHParams{Alpha: 0.03, Beta: 0.97}
}

// Validate checks the parameters for usable values
func (p GARCHParams) Validate() error {
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %g", p.Alpha)
	}
	if p.Beta <= 0 || p.Beta >= 1 {
		return fmt.Errorf("beta must be in (0, 1), got %g", p.Beta)
	}
	return nil
}

// GARCHVolatility runs the variance recursion over a portfolio value
// series and returns annualized volatilities aligned with the values.
// The first entry is NaN (no return yet); the variance seeds with the
// first squared log return.
func GARCHVolatility(values []float64, params GARCHParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("need at least 2 values, got %d", len(values))
	}
	for i, v := range values {
		if v <= 0 {
			return nil, fmt.Errorf("value at index %d must be positive, got %g", i, v)
		}
	}

	returns := formulas.LogReturns(values)

	out := make([]float64, len(values))
	out[0] = math.NaN()

	variance := returns[0] * returns[0]
	out[1] = annualize(variance)
	for i := 2; i < len(values); i++ {
		r := returns[i-1]
		variance = params.Beta*variance + params.Alpha*r*r
		out[i] = annualize(variance)
	}
	return out, nil
}
