package indexes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/modules/engine"
)

func validDefinition() *Definition {
	return &Definition{
		ID:                  "VOLT10",
		Name:                "Vol Target 10",
		AssetIDs:            []string{"AAA", "BBB", "CCC"},
		Calendar:            "TARGET",
		VolatilityTarget:    0.10,
		StaticContributions: []float64{0.3, 0.3, 0.4},
		Enabled:             true,
	}
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, validDefinition().Validate())

	missing := validDefinition()
	missing.ID = ""
	assert.Error(t, missing.Validate())

	noCalendar := validDefinition()
	noCalendar.Calendar = ""
	assert.Error(t, noCalendar.Validate())

	dup := validDefinition()
	dup.AssetIDs = []string{"AAA", "AAA", "CCC"}
	assert.Error(t, dup.Validate())

	shape := validDefinition()
	shape.StaticContributions = []float64{0.5, 0.5}
	assert.Error(t, shape.Validate())

	target := validDefinition()
	target.VolatilityTarget = 0
	assert.Error(t, target.Validate())
}

func TestDefinition_ValidateMomentum(t *testing.T) {
	def := validDefinition()
	def.Momentum = &MomentumConfig{
		RankedAssets:            []string{"AAA", "CCC"},
		RankToContributionTable: []float64{0.5, 0.2},
		FundingAdjusted:         true,
	}
	assert.NoError(t, def.Validate())

	unknown := validDefinition()
	unknown.Momentum = &MomentumConfig{
		RankedAssets:            []string{"ZZZ"},
		RankToContributionTable: []float64{0.5},
	}
	assert.Error(t, unknown.Validate())

	table := validDefinition()
	table.Momentum = &MomentumConfig{
		RankedAssets:            []string{"AAA", "CCC"},
		RankToContributionTable: []float64{0.5},
	}
	assert.Error(t, table.Validate())
}

func TestDefinition_ValidateParamsOverride(t *testing.T) {
	def := validDefinition()
	def.Params = &engine.Params{ShortWindow: 10, LongWindow: 30, VolatilityFloor: 1e-4}
	assert.NoError(t, def.Validate())

	def.Params = &engine.Params{ShortWindow: 40, LongWindow: 30, VolatilityFloor: 1e-4}
	assert.ErrorIs(t, def.Validate(), engine.ErrConfigurationMismatch)
}

func TestDefinition_ToValuationRequest(t *testing.T) {
	def := validDefinition()
	def.Momentum = &MomentumConfig{
		RankedAssets:            []string{"CCC", "AAA"},
		RankToContributionTable: []float64{0.5, 0.2},
		FundingAdjusted:         true,
	}

	valuationDate := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	req := def.ToValuationRequest(valuationDate)

	assert.Equal(t, "VOLT10", req.IndexID)
	assert.Equal(t, valuationDate, req.ValuationDate)
	assert.Equal(t, "TARGET", req.CalendarName)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, req.AssetIDs)

	require.True(t, req.Config.IsMomentumIndex)
	assert.True(t, req.Config.FundingAdjusted)
	assert.Equal(t, []bool{true, false, true}, req.Config.Ranked)
	assert.Equal(t, []float64{0.5, 0.2}, req.Config.RankToContributionTable)
	assert.Equal(t, []float64{0.3, 0.3, 0.4}, req.Config.StaticContributions)
	assert.NoError(t, req.Config.Validate())

	// The request must not alias the definition's slices.
	req.Config.StaticContributions[0] = 99
	assert.Equal(t, 0.3, def.StaticContributions[0])
}

func TestDefinition_ToValuationRequestStatic(t *testing.T) {
	def := validDefinition()

	req := def.ToValuationRequest(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.False(t, req.Config.IsMomentumIndex)
	assert.Nil(t, req.Config.Ranked)
	assert.Nil(t, req.Params)
	assert.NoError(t, req.Config.Validate())
}
