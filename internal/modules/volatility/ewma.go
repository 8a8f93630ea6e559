// Package volatility provides realized-volatility estimators for index
// diagnostics: exponentially weighted moving averages with two decay
// horizons, a GARCH-style recursion, and rolling-window measures. The
// estimators work on portfolio-level series and are independent of the
// weight engine.
package volatility

import (
	"fmt"
	"math"

	"github.com/aristath/ballast/pkg/formulas"
)

// EWMAParams controls the two-horizon EWMA estimator.
type EWMAParams struct {
	// LambdaShort is the fast decay factor, weighting recent returns
	// heavily.
	LambdaShort float64

	// LambdaLong is the slow decay factor.
	LambdaLong float64

	// SeedWindow is the number of trailing observations used to build
	// the initial variance at the recursion start.
	SeedWindow int
}

// DefaultEWMAParams returns the standard decay factors and seed window.
func DefaultEWMAParams() EWMAParams {
	return EWMAParams{
		LambdaShort: 0.94,
		LambdaLong:  0.97,
		SeedWindow:  60,
	}
}

// Validate checks the parameters for usable values
func (p EWMAParams) Validate() error {
	if p.LambdaShort <= 0 || p.LambdaShort >= 1 {
		return fmt.Errorf("short decay factor must be in (0, 1), got %g", p.LambdaShort)
	}
	if p.LambdaLong <= 0 || p.LambdaLong >= 1 {
		return fmt.Errorf("long decay factor must be in (0, 1), got %g", p.LambdaLong)
	}
	if p.SeedWindow < 1 {
		return fmt.Errorf("seed window must be at least 1, got %d", p.SeedWindow)
	}
	return nil
}

// Series is the output of the two-horizon estimator. The slices align
// with the input returns from SeedIndex onward: entry i describes
// returns[SeedIndex+i]. All volatilities are annualized.
type Series struct {
	SeedIndex int       `json:"seed_index"`
	Short     []float64 `json:"short"`
	Long      []float64 `json:"long"`
	Realized  []float64 `json:"realized"`
}

// RealizedVolatility runs both EWMA recursions over a daily log-return
// series. The recursion starts at min(SeedWindow, len-1); the variance
// there is a decay-weighted average of the trailing seed window, and
// each later step folds one squared return into the previous variance.
// The realized volatility on a date is the larger of the two horizons.
func RealizedVolatility(returns []float64, params EWMAParams) (*Series, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("cannot estimate volatility without returns")
	}

	seedIdx := params.SeedWindow
	if seedIdx > len(returns)-1 {
		seedIdx = len(returns) - 1
	}

	short := recurse(returns, seedIdx, params.LambdaShort, params.SeedWindow)
	long := recurse(returns, seedIdx, params.LambdaLong, params.SeedWindow)

	realized := make([]float64, len(short))
	for i := range short {
		realized[i] = math.Max(short[i], long[i])
	}

	return &Series{
		SeedIndex: seedIdx,
		Short:     short,
		Long:      long,
		Realized:  realized,
	}, nil
}

// recurse seeds one EWMA variance at seedIdx and rolls it forward,
// returning annualized volatilities.
func recurse(returns []float64, seedIdx int, lambda float64, seedWindow int) []float64 {
	variance := seedVariance(returns, seedIdx, lambda, seedWindow)

	out := make([]float64, len(returns)-seedIdx)
	out[0] = annualize(variance)
	for i := 1; i < len(out); i++ {
		r := returns[seedIdx+i]
		variance = lambda*variance + (1-lambda)*r*r
		out[i] = annualize(variance)
	}
	return out
}

// seedVariance builds the initial variance at seedIdx: squared returns
// over the trailing window, weighted by (1-lambda)*lambda^age and
// normalized so the weights sum to one.
func seedVariance(returns []float64, seedIdx int, lambda float64, window int) float64 {
	start := seedIdx - window + 1
	if start < 0 {
		start = 0
	}
	hist := returns[start : seedIdx+1]

	weights := make([]float64, len(hist))
	var total float64
	for i := range hist {
		age := len(hist) - 1 - i
		weights[i] = (1 - lambda) * math.Pow(lambda, float64(age))
		total += weights[i]
	}

	var variance float64
	for i, r := range hist {
		variance += (weights[i] / total) * r * r
	}
	return variance
}

func annualize(variance float64) float64 {
	return math.Sqrt(formulas.TradingDaysPerYear * variance)
}
