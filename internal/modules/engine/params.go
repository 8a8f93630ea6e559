package engine

import "fmt"

// Params holds the estimator windows and the volatility floor. The
// defaults reproduce the production configuration; individual indexes
// may override them.
type Params struct {
	// ShortWindow is the trailing observation count of the short
	// covariance estimate.
	ShortWindow int `json:"short_window" msgpack:"short_window"`

	// LongWindow is the trailing observation count of the long covariance
	// estimate, whose diagonal prices the per-asset volatilities.
	LongWindow int `json:"long_window" msgpack:"long_window"`

	// VolatilityFloor is the lower bound applied to each asset's
	// annualized volatility before it divides the risk budget.
	VolatilityFloor float64 `json:"volatility_floor" msgpack:"volatility_floor"`
}

// DefaultParams returns the standard two-horizon configuration
func DefaultParams() Params {
	return Params{
		ShortWindow:     20,
		LongWindow:      62,
		VolatilityFloor: 1e-4,
	}
}

// RequiredHistory is the minimum return-series length a valuation needs:
// one observation more than the long window.
func (p Params) RequiredHistory() int {
	return p.LongWindow + 1
}

// Validate checks window and floor coherence
func (p Params) Validate() error {
	if p.ShortWindow < 2 {
		return fmt.Errorf("%w: short window must be at least 2, got %d", ErrConfigurationMismatch, p.ShortWindow)
	}
	if p.LongWindow < 2 {
		return fmt.Errorf("%w: long window must be at least 2, got %d", ErrConfigurationMismatch, p.LongWindow)
	}
	if p.ShortWindow > p.LongWindow {
		return fmt.Errorf("%w: short window %d exceeds long window %d", ErrConfigurationMismatch, p.ShortWindow, p.LongWindow)
	}
	if p.VolatilityFloor <= 0 {
		return fmt.Errorf("%w: volatility floor must be positive, got %g", ErrConfigurationMismatch, p.VolatilityFloor)
	}
	return nil
}
