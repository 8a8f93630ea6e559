// Package scenarios detects which inverse-volatility multiplier regime a
// set of observed index weights matches most closely. Rebalance tooling
// publishes weights without labelling the regime that produced them;
// this reconstructs the label from the weights alone.
package scenarios

import (
	"errors"
)

// AssetClass determines which scenario multiplier applies to an asset.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassRate   AssetClass = "rate"
	AssetClassOther  AssetClass = "other"
	AssetClassCash   AssetClass = "cash"
)

// ErrNoWeighableAssets is returned when every asset is cash or carries
// no usable volatility.
var ErrNoWeighableAssets = errors.New("no weighable assets")

// Asset couples an identifier with its class and realized volatility.
type Asset struct {
	ID         string     `json:"id"`
	Class      AssetClass `json:"class"`
	Volatility float64    `json:"volatility"`
}

// Scenario is one multiplier regime: inverse-volatility weights with the
// equity and rate buckets deflated by their multipliers.
type Scenario struct {
	Name             string  `json:"name"`
	EquityMultiplier float64 `json:"equity_multiplier"`
	RateMultiplier   float64 `json:"rate_multiplier"`

	// WeightScale rescales the final weights when this scenario is in
	// effect. 1.0 for all but the most defensive regime.
	WeightScale float64 `json:"weight_scale"`
}

// StandardScenarios returns the four canonical regimes a through d.
func StandardScenarios() []Scenario {
	return []Scenario{
		{Name: "a", EquityMultiplier: 1, RateMultiplier: 1, WeightScale: 1.0},
		{Name: "b", EquityMultiplier: 1, RateMultiplier: 10, WeightScale: 1.0},
		{Name: "c", EquityMultiplier: 5, RateMultiplier: 1, WeightScale: 1.0},
		{Name: "d", EquityMultiplier: 5, RateMultiplier: 10, WeightScale: 0.75},
	}
}

// multiplier resolves the scenario multiplier for an asset class.
func (s Scenario) multiplier(class AssetClass) float64 {
	switch class {
	case AssetClassEquity:
		return s.EquityMultiplier
	case AssetClassRate:
		return s.RateMultiplier
	default:
		return 1.0
	}
}

// ApplyScale returns the weights with the scenario's WeightScale applied.
func (s Scenario) ApplyScale(weights map[string]float64) map[string]float64 {
	scaled := make(map[string]float64, len(weights))
	for id, w := range weights {
		scaled[id] = w * s.WeightScale
	}
	return scaled
}

// Detection reports the closest scenario for a set of observed weights.
type Detection struct {
	Scenario Scenario `json:"scenario"`

	// Distance is the Euclidean distance between the normalized observed
	// weights and the winning scenario's model weights.
	Distance float64 `json:"distance"`

	// ModelWeights is the winning scenario's inverse-volatility weight
	// vector before WeightScale.
	ModelWeights map[string]float64 `json:"model_weights"`

	// Distances lists the distance per scenario name, for diagnostics.
	Distances map[string]float64 `json:"distances"`
}
