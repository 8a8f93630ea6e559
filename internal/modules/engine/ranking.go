package engine

import (
	"fmt"
	"sort"

	"github.com/aristath/ballast/internal/modules/calendar"
)

// RankedPerformance pairs a ranked asset with its momentum score.
type RankedPerformance struct {
	// Asset is the index into the request's asset list.
	Asset int `json:"asset" msgpack:"asset"`

	// Performance is the cumulative funding-adjusted daily return over
	// the full available history.
	Performance float64 `json:"performance" msgpack:"performance"`
}

// FundingDrags converts business-day pairs and the funding rates observed
// on each pair's prior business day into per-observation drag terms:
//
//	drag = rate * calendarDays(prior, date) / 360
//
// Element k of the result corresponds to element k of both inputs, so the
// caller decides the ordering; only the count has to match the return
// history length. The drag is asset independent.
func FundingDrags(pairs []calendar.DayPair, rates []float64) ([]float64, error) {
	if len(pairs) != len(rates) {
		return nil, fmt.Errorf("have %d business-day pairs but %d funding rates", len(pairs), len(rates))
	}
	drags := make([]float64, len(pairs))
	for k, pair := range pairs {
		drags[k] = rates[k] * float64(pair.DaysBetween()) / 360
	}
	return drags, nil
}

// Rank orders the ranked subset of assets by cumulative performance over
// the entire return history, best first. When drags is non-nil, the k-th
// drag is subtracted from the k-th observation before accumulation; a nil
// drags slice ranks on raw returns.
//
// An asset with an empty return series scores exactly zero. Ties keep the
// assets in their original order, and a NaN score compares equal to
// everything, so NaN-scored assets also fall back to original order.
func Rank(returns [][]float64, ranked []int, drags []float64) []RankedPerformance {
	out := make([]RankedPerformance, len(ranked))
	for i, asset := range ranked {
		perf := 0.0
		for k, ret := range returns[asset] {
			if drags != nil {
				ret -= drags[k]
			}
			perf += ret
		}
		out[i] = RankedPerformance{Asset: asset, Performance: perf}
	}

	sort.SliceStable(out, func(a, b int) bool {
		switch {
		case out[a].Performance > out[b].Performance:
			return true
		case out[a].Performance < out[b].Performance:
			return false
		default:
			return out[a].Asset < out[b].Asset
		}
	})
	return out
}
