package scenarios

import (
	"fmt"
	"math"
)

// InverseVolWeights builds the model weight vector for one scenario:
// each non-cash asset with positive volatility gets 1/vol deflated by
// its class multiplier, normalized to sum to one. Assets without usable
// volatility are left out of the vector.
func InverseVolWeights(assets []Asset, scenario Scenario) (map[string]float64, error) {
	weights := make(map[string]float64)
	var total float64

	for _, asset := range assets {
		if asset.Class == AssetClassCash {
			continue
		}
		if asset.Volatility <= 0 || math.IsNaN(asset.Volatility) {
			continue
		}
		inv := (1.0 / asset.Volatility) / scenario.multiplier(asset.Class)
		weights[asset.ID] = inv
		total += inv
	}

	if total <= 0 {
		return nil, fmt.Errorf("%w: scenario %s", ErrNoWeighableAssets, scenario.Name)
	}

	for id := range weights {
		weights[id] /= total
	}
	return weights, nil
}

// Detect normalizes the observed weights over non-cash assets and
// returns the scenario whose model weights sit closest in Euclidean
// distance. Ties keep the earlier scenario in the canonical order.
func Detect(assets []Asset, observed map[string]float64) (*Detection, error) {
	if len(observed) == 0 {
		return nil, fmt.Errorf("no observed weights to classify")
	}

	cash := make(map[string]bool)
	for _, asset := range assets {
		if asset.Class == AssetClassCash {
			cash[asset.ID] = true
		}
	}

	var totalNonCash float64
	for id, w := range observed {
		if !cash[id] {
			totalNonCash += w
		}
	}
	if totalNonCash <= 0 {
		return nil, fmt.Errorf("%w: observed weights sum to %g outside cash", ErrNoWeighableAssets, totalNonCash)
	}

	normalized := make(map[string]float64)
	for id, w := range observed {
		if !cash[id] {
			normalized[id] = w / totalNonCash
		}
	}

	detection := &Detection{
		Distance:  math.MaxFloat64,
		Distances: make(map[string]float64),
	}

	for _, scenario := range StandardScenarios() {
		model, err := InverseVolWeights(assets, scenario)
		if err != nil {
			return nil, err
		}

		var sum float64
		for id, w := range normalized {
			modelWeight, ok := model[id]
			if !ok {
				continue
			}
			diff := w - modelWeight
			sum += diff * diff
		}
		distance := math.Sqrt(sum)
		detection.Distances[scenario.Name] = distance

		if distance < detection.Distance {
			detection.Distance = distance
			detection.Scenario = scenario
			detection.ModelWeights = model
		}
	}

	return detection, nil
}
