package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/ballast/pkg/formulas"
)

// Result is the complete output of one valuation-date computation. All
// fields derive from the inputs alone; two calls with identical inputs
// produce identical bits.
type Result struct {
	// InitialWeights is the per-asset unscaled weight vector. Applying
	// ScalingFactor to each entry yields the final index weights.
	InitialWeights []float64 `json:"initial_weights" msgpack:"initial_weights"`

	// SumInitialWeights is the plain sum of InitialWeights.
	SumInitialWeights float64 `json:"sum_initial_weights" msgpack:"sum_initial_weights"`

	// ScalingFactor is the volatility target divided by the larger of the
	// two portfolio volatilities.
	ScalingFactor float64 `json:"scaling_factor" msgpack:"scaling_factor"`

	// PortfolioVolatilityShort prices the initial weights against the
	// short-window covariance, annualized.
	PortfolioVolatilityShort float64 `json:"portfolio_volatility_short" msgpack:"portfolio_volatility_short"`

	// PortfolioVolatilityLong prices the initial weights against the
	// long-window covariance, annualized.
	PortfolioVolatilityLong float64 `json:"portfolio_volatility_long" msgpack:"portfolio_volatility_long"`

	// RealizedVarianceEstimate is the binding portfolio volatility per
	// unit of target, normalized by the weight sum per unit of target.
	RealizedVarianceEstimate float64 `json:"realized_variance_estimate" msgpack:"realized_variance_estimate"`

	// RealizedVarianceEstimateSquared is the square of the estimate. Both
	// are reported; downstream consumers read one or the other.
	RealizedVarianceEstimateSquared float64 `json:"realized_variance_estimate_squared" msgpack:"realized_variance_estimate_squared"`

	// AssetVolatilities holds the annualized long-window volatilities
	// after flooring, the denominators of the initial weights.
	AssetVolatilities []float64 `json:"asset_volatilities" msgpack:"asset_volatilities"`

	// Contributions is the resolved per-asset risk budget after any
	// momentum reassignment.
	Contributions []float64 `json:"contributions" msgpack:"contributions"`

	// Ranking is the momentum ordering that produced Contributions, best
	// performer first. Nil for non-momentum indexes.
	Ranking []RankedPerformance `json:"ranking,omitempty" msgpack:"ranking,omitempty"`
}

// ScaledWeights returns the final index weights: InitialWeights with
// ScalingFactor applied.
func (r *Result) ScaledWeights() []float64 {
	scaled := make([]float64, len(r.InitialWeights))
	for i, w := range r.InitialWeights {
		scaled[i] = w * r.ScalingFactor
	}
	return scaled
}

// Synthesize runs the full weight computation for one valuation date:
// covariance estimation over both windows, momentum ranking when the
// configuration asks for it, contribution resolution, and the
// volatility-target scaling step.
//
// The returns matrix is ordered oldest observation first and must be
// rectangular with at least LongWindow+1 observations per asset. drags
// carries one funding-drag term per observation and is consulted only
// when the configuration is momentum-style and funding adjusted; pass
// nil otherwise.
func Synthesize(returns [][]float64, cfg IndexConfig, drags []float64, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.AssetCount()
	if len(returns) != n {
		return nil, fmt.Errorf("%w: have %d return series for %d configured assets", ErrConfigurationMismatch, len(returns), n)
	}
	length := len(returns[0])
	for i, series := range returns {
		if len(series) != length {
			return nil, fmt.Errorf("return matrix is ragged: series 0 has %d observations, series %d has %d", length, i, len(series))
		}
	}
	if length < params.RequiredHistory() {
		return nil, fmt.Errorf("%w: need %d observations, have %d", ErrInsufficientHistory, params.RequiredHistory(), length)
	}

	covarShort, err := Covariance(returns, params.ShortWindow)
	if err != nil {
		return nil, fmt.Errorf("short covariance: %w", err)
	}
	covarLong, err := Covariance(returns, params.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("long covariance: %w", err)
	}

	var ranking []RankedPerformance
	if cfg.IsMomentumIndex {
		adjust := drags
		if !cfg.FundingAdjusted {
			adjust = nil
		}
		if adjust != nil && len(adjust) != length {
			return nil, fmt.Errorf("funding drags cover %d observations, history has %d", len(adjust), length)
		}
		ranking = Rank(returns, cfg.RankedAssets(), adjust)
	}

	result, err := SynthesizeFromCovariances(covarShort, covarLong, Contributions(cfg, ranking), cfg.VolatilityTarget, params)
	if err != nil {
		return nil, err
	}
	result.Ranking = ranking
	return result, nil
}

// SynthesizeFromCovariances performs the allocation and scaling steps on
// covariance matrices that were estimated elsewhere. Both matrices are
// daily; annualization happens here.
func SynthesizeFromCovariances(covarShort, covarLong *mat.SymDense, contributions []float64, volatilityTarget float64, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if volatilityTarget <= 0 {
		return nil, fmt.Errorf("%w: volatility target must be positive, got %g", ErrConfigurationMismatch, volatilityTarget)
	}
	n := len(contributions)
	if n == 0 {
		return nil, fmt.Errorf("%w: no contributions provided", ErrConfigurationMismatch)
	}
	if covarShort.SymmetricDim() != n || covarLong.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: covariance dimensions %dx%d and %dx%d for %d contributions",
			ErrConfigurationMismatch, covarShort.SymmetricDim(), covarShort.SymmetricDim(),
			covarLong.SymmetricDim(), covarLong.SymmetricDim(), n)
	}

	// Each asset's weight is its risk budget priced at its own long-window
	// volatility. Degenerate volatilities (zero, negative variance noise,
	// NaN) are lifted to the floor instead of failing the computation.
	vols := make([]float64, n)
	weights := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		vol := math.Sqrt(covarLong.At(i, i) * formulas.TradingDaysPerYear)
		if math.IsNaN(vol) || vol < params.VolatilityFloor {
			vol = params.VolatilityFloor
		}
		vols[i] = vol
		weights[i] = volatilityTarget * contributions[i] / vol
		sum += weights[i]
	}

	pvShort := portfolioVolatility(weights, covarShort)
	pvLong := portfolioVolatility(weights, covarLong)

	// The scaling step targets whichever horizon currently reads riskier.
	maxPV := math.Max(pvShort, pvLong)
	scaling := volatilityTarget / maxPV

	estimate := (maxPV / volatilityTarget) / (sum / volatilityTarget)

	return &Result{
		InitialWeights:                  weights,
		SumInitialWeights:               sum,
		ScalingFactor:                   scaling,
		PortfolioVolatilityShort:        pvShort,
		PortfolioVolatilityLong:         pvLong,
		RealizedVarianceEstimate:        estimate,
		RealizedVarianceEstimateSquared: estimate * estimate,
		AssetVolatilities:               vols,
		Contributions:                   contributions,
	}, nil
}

// portfolioVolatility prices a weight vector against a daily covariance
// matrix: sqrt(w' C w * 252).
func portfolioVolatility(weights []float64, cov *mat.SymDense) float64 {
	var variance float64
	n := len(weights)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * cov.At(i, j)
		}
	}
	return math.Sqrt(variance * formulas.TradingDaysPerYear)
}
