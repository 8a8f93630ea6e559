// Package indexes stores index definitions and translates them into the
// engine's valuation requests.
package indexes

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/ballast/internal/modules/engine"
)

// ErrNotFound indicates the requested index definition does not exist.
var ErrNotFound = errors.New("index definition not found")

// MomentumConfig marks a definition as momentum-style: the named assets
// are ranked by trailing performance and receive the table entry of
// their rank instead of their static contribution.
type MomentumConfig struct {
	// RankedAssets names the subset of AssetIDs that participates in
	// ranking.
	RankedAssets []string `json:"ranked_assets"`

	// RankToContributionTable maps rank (0 = best) to contribution. Its
	// length must equal len(RankedAssets).
	RankToContributionTable []float64 `json:"rank_to_contribution_table"`

	// FundingAdjusted subtracts the money-market drag before ranking.
	FundingAdjusted bool `json:"funding_adjusted"`
}

// Definition is the stored configuration of one index. It is persisted
// as a JSON document; identity, enablement and timestamps live in their
// own columns.
type Definition struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	AssetIDs            []string        `json:"asset_ids"`
	Calendar            string          `json:"calendar"`
	VolatilityTarget    float64         `json:"volatility_target"`
	StaticContributions []float64       `json:"static_contributions"`
	Momentum            *MomentumConfig `json:"momentum,omitempty"`

	// Params overrides the engine's default windows and floor. Nil keeps
	// the service defaults.
	Params *engine.Params `json:"params,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks internal consistency before the definition is stored.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("index id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("index name is required")
	}
	if d.Calendar == "" {
		return fmt.Errorf("calendar name is required")
	}
	if len(d.AssetIDs) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	seen := make(map[string]struct{}, len(d.AssetIDs))
	for _, id := range d.AssetIDs {
		if id == "" {
			return fmt.Errorf("asset ids must not be empty")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate asset id %q", id)
		}
		seen[id] = struct{}{}
	}
	if len(d.StaticContributions) != len(d.AssetIDs) {
		return fmt.Errorf("%d static contributions for %d assets", len(d.StaticContributions), len(d.AssetIDs))
	}
	if d.VolatilityTarget <= 0 {
		return fmt.Errorf("volatility target must be positive, got %g", d.VolatilityTarget)
	}

	if d.Momentum != nil {
		if len(d.Momentum.RankedAssets) == 0 {
			return fmt.Errorf("momentum config names no ranked assets")
		}
		ranked := make(map[string]struct{}, len(d.Momentum.RankedAssets))
		for _, id := range d.Momentum.RankedAssets {
			if _, member := seen[id]; !member {
				return fmt.Errorf("ranked asset %q is not in the asset list", id)
			}
			if _, dup := ranked[id]; dup {
				return fmt.Errorf("duplicate ranked asset %q", id)
			}
			ranked[id] = struct{}{}
		}
		if got, want := len(d.Momentum.RankToContributionTable), len(d.Momentum.RankedAssets); got != want {
			return fmt.Errorf("rank table has %d entries for %d ranked assets", got, want)
		}
	}

	if d.Params != nil {
		if err := d.Params.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToValuationRequest converts the definition into the engine's input for
// one valuation date.
func (d *Definition) ToValuationRequest(valuationDate time.Time) engine.ValuationRequest {
	cfg := engine.IndexConfig{
		StaticContributions: append([]float64(nil), d.StaticContributions...),
		VolatilityTarget:    d.VolatilityTarget,
	}

	if d.Momentum != nil {
		cfg.IsMomentumIndex = true
		cfg.FundingAdjusted = d.Momentum.FundingAdjusted
		cfg.RankToContributionTable = append([]float64(nil), d.Momentum.RankToContributionTable...)

		position := make(map[string]int, len(d.AssetIDs))
		for i, id := range d.AssetIDs {
			position[id] = i
		}
		cfg.Ranked = make([]bool, len(d.AssetIDs))
		for _, id := range d.Momentum.RankedAssets {
			if i, ok := position[id]; ok {
				cfg.Ranked[i] = true
			}
		}
	}

	return engine.ValuationRequest{
		IndexID:       d.ID,
		ValuationDate: valuationDate,
		AssetIDs:      append([]string(nil), d.AssetIDs...),
		CalendarName:  d.Calendar,
		Config:        cfg,
		Params:        d.Params,
	}
}
