package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
	"github.com/aristath/ballast/internal/modules/engine"
	"github.com/aristath/ballast/internal/modules/indexes"
)

type stubDefinitions struct {
	defs map[string]*indexes.Definition
}

func (s *stubDefinitions) Get(_ context.Context, id string) (*indexes.Definition, error) {
	def, ok := s.defs[id]
	if !ok {
		return nil, indexes.ErrNotFound
	}
	return def, nil
}

func (s *stubDefinitions) List(_ context.Context, enabledOnly bool) ([]*indexes.Definition, error) {
	var out []*indexes.Definition
	for _, def := range s.defs {
		if !enabledOnly || def.Enabled {
			out = append(out, def)
		}
	}
	return out, nil
}

type stubValuator struct {
	err   error
	calls int
}

func (s *stubValuator) Valuate(_ context.Context, req engine.ValuationRequest) (*engine.ValuationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &engine.ValuationResult{
		IndexID:       req.IndexID,
		ValuationDate: req.ValuationDate,
		AssetIDs:      req.AssetIDs,
		Params:        engine.DefaultParams(),
		Result: &engine.Result{
			InitialWeights:    []float64{0.5, 0.5},
			SumInitialWeights: 1.0,
			ScalingFactor:     0.9,
		},
	}, nil
}

type stubRuns struct {
	err   error
	saved int
}

func (s *stubRuns) Save(_ context.Context, _ *engine.ValuationResult) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved++
	return "run-id-1", nil
}

type stubReports struct {
	err     error
	written int
}

func (s *stubReports) Write(_ *engine.ValuationResult, scaled bool) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !scaled {
		return "", errors.New("expected scaled report")
	}
	s.written++
	return "/reports/weights.csv", nil
}

func testDefinition(id string, enabled bool) *indexes.Definition {
	return &indexes.Definition{
		ID:                  id,
		Name:                "Test " + id,
		AssetIDs:            []string{"AAA", "BBB"},
		Calendar:            "TARGET",
		VolatilityTarget:    0.1,
		StaticContributions: []float64{0.5, 0.5},
		Enabled:             enabled,
	}
}

func testDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(calendar.DateLayout, s)
	require.NoError(t, err)
	return d
}

func newTestService(defs *stubDefinitions, valuator *stubValuator, runs *stubRuns, reports *stubReports, bus *events.Bus) *ValuationService {
	if bus == nil {
		bus = events.NewBus(zerolog.Nop())
	}
	return NewValuationService(defs, valuator, runs, reports, bus, zerolog.Nop())
}

func TestValuateIndex_FullPipeline(t *testing.T) {
	defs := &stubDefinitions{defs: map[string]*indexes.Definition{
		"IDX-1": testDefinition("IDX-1", true),
	}}
	valuator := &stubValuator{}
	runs := &stubRuns{}
	reports := &stubReports{}
	bus := events.NewBus(zerolog.Nop())

	var completed []*events.Event
	bus.Subscribe(events.ValuationCompleted, func(e *events.Event) {
		completed = append(completed, e)
	})

	service := newTestService(defs, valuator, runs, reports, bus)

	outcome, err := service.ValuateIndex(context.Background(), "IDX-1", testDate(t, "2026-04-07"))
	require.NoError(t, err)

	assert.Equal(t, "run-id-1", outcome.RunID)
	assert.Equal(t, "/reports/weights.csv", outcome.ReportPath)
	assert.Equal(t, 1, runs.saved)
	assert.Equal(t, 1, reports.written)

	require.Len(t, completed, 1)
	assert.Equal(t, "run-id-1", completed[0].Data["run_id"])
	assert.Equal(t, "IDX-1", completed[0].Data["index_id"])
	assert.Equal(t, "2026-04-07", completed[0].Data["valuation_date"])
}

func TestValuateIndex_UnknownIndex(t *testing.T) {
	service := newTestService(&stubDefinitions{}, &stubValuator{}, &stubRuns{}, &stubReports{}, nil)

	_, err := service.ValuateIndex(context.Background(), "NOPE", testDate(t, "2026-04-07"))
	assert.ErrorIs(t, err, indexes.ErrNotFound)
}

func TestValuateIndex_EngineFailureAnnounced(t *testing.T) {
	defs := &stubDefinitions{defs: map[string]*indexes.Definition{
		"IDX-1": testDefinition("IDX-1", true),
	}}
	bus := events.NewBus(zerolog.Nop())

	var failed []*events.Event
	bus.Subscribe(events.ValuationFailed, func(e *events.Event) {
		failed = append(failed, e)
	})

	service := newTestService(defs, &stubValuator{err: engine.ErrInsufficientHistory}, &stubRuns{}, &stubReports{}, bus)

	_, err := service.ValuateIndex(context.Background(), "IDX-1", testDate(t, "2026-04-07"))
	assert.ErrorIs(t, err, engine.ErrInsufficientHistory)

	require.Len(t, failed, 1)
	assert.Equal(t, "IDX-1", failed[0].Data["index_id"])
}

func TestValuateIndex_PersistFailureAnnounced(t *testing.T) {
	defs := &stubDefinitions{defs: map[string]*indexes.Definition{
		"IDX-1": testDefinition("IDX-1", true),
	}}
	bus := events.NewBus(zerolog.Nop())

	var failed []*events.Event
	bus.Subscribe(events.ValuationFailed, func(e *events.Event) {
		failed = append(failed, e)
	})

	service := newTestService(defs, &stubValuator{}, &stubRuns{err: errors.New("disk full")}, &stubReports{}, bus)

	_, err := service.ValuateIndex(context.Background(), "IDX-1", testDate(t, "2026-04-07"))
	assert.Error(t, err)
	assert.Len(t, failed, 1)
}

func TestValuateEnabled_ContinuesPastFailures(t *testing.T) {
	defs := &stubDefinitions{defs: map[string]*indexes.Definition{
		"GOOD":     testDefinition("GOOD", true),
		"DISABLED": testDefinition("DISABLED", false),
	}}
	valuator := &stubValuator{}
	service := newTestService(defs, valuator, &stubRuns{}, &stubReports{}, nil)

	outcomes, failures, err := service.ValuateEnabled(context.Background(), testDate(t, "2026-04-07"))
	require.NoError(t, err)

	// Only the enabled index runs.
	assert.Len(t, outcomes, 1)
	assert.Empty(t, failures)
	assert.Equal(t, 1, valuator.calls)
}

func TestValuateEnabled_CollectsFailures(t *testing.T) {
	defs := &stubDefinitions{defs: map[string]*indexes.Definition{
		"IDX-1": testDefinition("IDX-1", true),
	}}
	service := newTestService(defs, &stubValuator{err: errors.New("boom")}, &stubRuns{}, &stubReports{}, nil)

	outcomes, failures, err := service.ValuateEnabled(context.Background(), testDate(t, "2026-04-07"))
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	require.Len(t, failures, 1)
	assert.Equal(t, "IDX-1", failures[0].IndexID)
	assert.Error(t, failures[0].Err)
}
