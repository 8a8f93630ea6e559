// Package universe stores the daily return history the engine computes
// from. Closes are ingested per asset, converted to simple returns and
// forward-filled over business-day gaps at write time, so reads never
// have to patch holes.
package universe

import "time"

// ClosePoint is one incoming daily close observation.
type ClosePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Observation is one stored row: the close and the simple return against
// the previous stored observation.
type Observation struct {
	AssetID string    `json:"asset_id"`
	Date    time.Time `json:"date"`
	Close   float64   `json:"close"`
	Return  float64   `json:"return"`
}
