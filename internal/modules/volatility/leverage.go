package volatility

import (
	"fmt"
	"math"
)

// LeverageParams controls the volatility-targeting leverage rule.
type LeverageParams struct {
	// TargetVolatility is the annualized volatility the leveraged
	// exposure aims for.
	TargetVolatility float64

	// MaxLeverage caps the factor when realized volatility drops far
	// below target.
	MaxLeverage float64

	// LagDays shifts the factor before it applies: the factor computed
	// on day t takes effect on day t+LagDays. Days before the first
	// computed factor use 1.0.
	LagDays int
}

// DefaultLeverageParams returns the standard cap and lag for a target.
func DefaultLeverageParams(target float64) LeverageParams {
	return LeverageParams{
		TargetVolatility: target,
		MaxLeverage:      1.5,
		LagDays:          1,
	}
}

// Validate checks the parameters for usable values
func (p LeverageParams) Validate() error {
	if p.TargetVolatility <= 0 {
		return fmt.Errorf("target volatility must be positive, got %g", p.TargetVolatility)
	}
	if p.MaxLeverage <= 0 {
		return fmt.Errorf("max leverage must be positive, got %g", p.MaxLeverage)
	}
	if p.LagDays < 0 {
		return fmt.Errorf("lag days cannot be negative, got %d", p.LagDays)
	}
	return nil
}

// LeverageFactors derives the applied leverage series from realized
// volatilities: target over realized, capped at MaxLeverage, shifted by
// LagDays. Entries without a lagged factor yet, or whose lagged
// realized volatility was undefined, fall back to 1.0.
func LeverageFactors(realized []float64, params LeverageParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	raw := make([]float64, len(realized))
	for i, vol := range realized {
		if math.IsNaN(vol) {
			raw[i] = math.NaN()
			continue
		}
		factor := params.TargetVolatility / vol
		if factor > params.MaxLeverage {
			factor = params.MaxLeverage
		}
		raw[i] = factor
	}

	applied := make([]float64, len(realized))
	for i := range applied {
		j := i - params.LagDays
		if j < 0 || math.IsNaN(raw[j]) {
			applied[i] = 1.0
			continue
		}
		applied[i] = raw[j]
	}
	return applied, nil
}
