// Package events provides the in-process event bus used to announce
// rate updates, completed valuations, and backup activity.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a class of event on the bus
type EventType string

const (
	// RateUpdated - a funding-rate fixing was stored or refreshed
	RateUpdated EventType = "RATE_UPDATED"
	// ValuationCompleted - a valuation run finished and was persisted
	ValuationCompleted EventType = "VALUATION_COMPLETED"
	// ValuationFailed - a valuation run aborted with an error
	ValuationFailed EventType = "VALUATION_FAILED"
	// BackupCompleted - a backup archive was uploaded
	BackupCompleted EventType = "BACKUP_COMPLETED"
	// FeedStatusChanged - the rates feed connected or disconnected
	FeedStatusChanged EventType = "FEED_STATUS_CHANGED"
)

// KnownTypes lists every event type the stream endpoint may subscribe to
var KnownTypes = []EventType{
	RateUpdated,
	ValuationCompleted,
	ValuationFailed,
	BackupCompleted,
	FeedStatusChanged,
}

// Event is a single occurrence published on the bus
type Event struct {
	Type      EventType              `json:"type"`
	Module    string                 `json:"module"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block; slow
// consumers should buffer and drop on their own side.
type Handler func(*Event)

// Bus is a synchronous publish/subscribe dispatcher
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   int
	log      zerolog.Logger
}

type subscription struct {
	id      int
	handler Handler
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscription),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type and returns a
// function that removes the subscription.
func (b *Bus) Subscribe(t EventType, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[t]
		for i, s := range subs {
			if s.id == id {
				b.handlers[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit publishes an event to all subscribers of its type
func (b *Bus) Emit(t EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      t,
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[t]))
	copy(subs, b.handlers[t])
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(t)).
		Str("module", module).
		Int("subscribers", len(subs)).
		Msg("Emitting event")

	for _, s := range subs {
		s.handler(event)
	}
}

// EmitTyped publishes a typed payload, flattening it to the generic
// event data map via its JSON form.
func (b *Bus) EmitTyped(t EventType, module string, data EventData) {
	raw, err := json.Marshal(data)
	if err != nil {
		b.log.Error().Err(err).Str("event_type", string(t)).Msg("Failed to encode event data")
		return
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(raw, &flat); err != nil {
		b.log.Error().Err(err).Str("event_type", string(t)).Msg("Failed to flatten event data")
		return
	}

	b.Emit(t, module, flat)
}
