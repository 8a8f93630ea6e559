package ratesfeed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
)

type storedFixing struct {
	date   time.Time
	rate   float64
	source string
}

type stubStore struct {
	saved []storedFixing
	err   error
}

func (s *stubStore) SaveFixing(_ context.Context, date time.Time, rate float64, source string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, storedFixing{date: date, rate: rate, source: source})
	return nil
}

func newTestClient(store *stubStore, bus *events.Bus) *Client {
	return NewClient("wss://feed.example/ws", store, bus, zerolog.Nop())
}

func TestHandleMessage_StoresFixingsAndEmits(t *testing.T) {
	store := &stubStore{}
	bus := events.NewBus(zerolog.Nop())

	var received []*events.Event
	bus.Subscribe(events.RateUpdated, func(e *events.Event) {
		received = append(received, e)
	})

	c := newTestClient(store, bus)

	msg := []byte(`["fixings", {"fixings": [
		{"date": "2026-04-06", "rate": 0.021, "source": "ecb"},
		{"date": "2026-04-07", "rate": 0.022}
	], "timestamp": "2026-04-07T18:00:00Z"}]`)

	require.NoError(t, c.handleMessage(context.Background(), msg))

	require.Len(t, store.saved, 2)
	assert.Equal(t, "2026-04-06", store.saved[0].date.Format(calendar.DateLayout))
	assert.InDelta(t, 0.021, store.saved[0].rate, 1e-12)
	assert.Equal(t, "ecb", store.saved[0].source)
	assert.Equal(t, "feed", store.saved[1].source)

	require.Len(t, received, 2)
	assert.Equal(t, "2026-04-07", received[1].Data["date"])
	assert.InDelta(t, 0.022, received[1].Data["rate"].(float64), 1e-12)

	assert.False(t, c.LastReceived().IsZero())
}

func TestHandleMessage_IgnoresOtherChannels(t *testing.T) {
	store := &stubStore{}
	c := newTestClient(store, events.NewBus(zerolog.Nop()))

	msg := []byte(`["heartbeat", {"seq": 42}]`)

	require.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Empty(t, store.saved)
}

func TestHandleMessage_Malformed(t *testing.T) {
	store := &stubStore{}
	c := newTestClient(store, events.NewBus(zerolog.Nop()))
	ctx := context.Background()

	cases := []struct {
		name string
		msg  string
	}{
		{"not an array", `{"fixings": []}`},
		{"too short", `["fixings"]`},
		{"bad payload", `["fixings", "nope"]`},
		{"bad date", `["fixings", {"fixings": [{"date": "April 7", "rate": 0.02}]}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, c.handleMessage(ctx, []byte(tc.msg)))
		})
	}
	assert.Empty(t, store.saved)
}

func TestHandleMessage_StoreError(t *testing.T) {
	store := &stubStore{err: fmt.Errorf("disk full")}
	c := newTestClient(store, events.NewBus(zerolog.Nop()))

	msg := []byte(`["fixings", {"fixings": [{"date": "2026-04-07", "rate": 0.02}]}]`)

	err := c.handleMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, calculateBackoff(1))
	assert.Equal(t, 10*time.Second, calculateBackoff(2))
	assert.Equal(t, 40*time.Second, calculateBackoff(4))
	assert.Equal(t, maxReconnectDelay, calculateBackoff(12))
}
