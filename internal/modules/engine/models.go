// Package engine computes volatility-targeted index weights: two-horizon
// covariance estimation, momentum ranking with funding drag, rank-indexed
// risk-budget allocation, and the volatility-targeting scaling step.
package engine

import (
	"fmt"
	"time"
)

// IndexConfig is the engine's view of an index definition. It carries
// everything the pure computation needs and nothing about storage.
type IndexConfig struct {
	// IsMomentumIndex enables performance ranking of the flagged subset
	IsMomentumIndex bool

	// Ranked flags, per asset, whether the asset participates in ranking.
	// Ignored for non-momentum indexes.
	Ranked []bool

	// RankToContributionTable maps rank (0 = best performer) to the
	// volatility contribution the asset at that rank receives. Its length
	// must equal the number of ranked assets.
	RankToContributionTable []float64

	// StaticContributions is the per-asset volatility contribution used
	// for every asset of a non-momentum index and for the non-ranked
	// assets of a momentum index. The sum is not required to be 1; that
	// is a configuration responsibility.
	StaticContributions []float64

	// VolatilityTarget is the annualized volatility the scaled portfolio
	// aims for.
	VolatilityTarget float64

	// FundingAdjusted subtracts the money-market funding drag from raw
	// returns before ranking. Only meaningful for momentum indexes.
	FundingAdjusted bool
}

// AssetCount returns the number of assets the configuration describes
func (c IndexConfig) AssetCount() int {
	return len(c.StaticContributions)
}

// RankedAssetCount returns the number of assets flagged for ranking
func (c IndexConfig) RankedAssetCount() int {
	count := 0
	for _, r := range c.Ranked {
		if r {
			count++
		}
	}
	return count
}

// RankedAssets returns the original indices of the ranked assets in
// ascending order.
func (c IndexConfig) RankedAssets() []int {
	var ranked []int
	for i, r := range c.Ranked {
		if r {
			ranked = append(ranked, i)
		}
	}
	return ranked
}

// Validate checks the configuration shape against the asset count
func (c IndexConfig) Validate() error {
	n := c.AssetCount()
	if n == 0 {
		return fmt.Errorf("%w: no static contributions configured", ErrConfigurationMismatch)
	}
	if c.VolatilityTarget <= 0 {
		return fmt.Errorf("%w: volatility target must be positive, got %g", ErrConfigurationMismatch, c.VolatilityTarget)
	}
	if c.IsMomentumIndex {
		if len(c.Ranked) != n {
			return fmt.Errorf("%w: ranked flags cover %d assets, expected %d", ErrConfigurationMismatch, len(c.Ranked), n)
		}
		if got, want := len(c.RankToContributionTable), c.RankedAssetCount(); got != want {
			return fmt.Errorf("%w: rank table has %d entries for %d ranked assets", ErrConfigurationMismatch, got, want)
		}
	}
	return nil
}

// ValuationRequest bundles the inputs of one valuation-date computation
type ValuationRequest struct {
	IndexID       string
	ValuationDate time.Time
	AssetIDs      []string
	CalendarName  string
	Config        IndexConfig

	// Params overrides the service-level estimator parameters for this
	// index. Nil uses the defaults the service was built with.
	Params *Params
}

// ValuationResult pairs the synthesizer output with the request context
// for persistence and reporting.
type ValuationResult struct {
	IndexID       string    `json:"index_id" msgpack:"index_id"`
	ValuationDate time.Time `json:"valuation_date" msgpack:"valuation_date"`
	AssetIDs      []string  `json:"asset_ids" msgpack:"asset_ids"`
	Params        Params    `json:"params" msgpack:"params"`
	Result        *Result   `json:"result" msgpack:"result"`
}
