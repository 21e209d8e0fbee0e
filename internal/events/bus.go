// Package events provides a typed in-process event bus. Components publish
// domain events (forecast lifecycle, cache maintenance) and observers such as
// the SSE stream subscribe without coupling to the publishers.
package events

import (
	"sync"
	"time"
)

// EventType identifies a category of event
type EventType string

const (
	// ForecastProgress is emitted on every phase transition of a forecast request
	ForecastProgress EventType = "forecast.progress"
	// ForecastCompleted is emitted when a forecast result has been assembled
	ForecastCompleted EventType = "forecast.completed"
	// ForecastFailed is emitted when a forecast request is rejected outright
	ForecastFailed EventType = "forecast.failed"
	// CacheSwept is emitted after a maintenance sweep of the forecast cache
	CacheSwept EventType = "cache.swept"
	// SnapshotsPruned is emitted after expired snapshots are removed
	SnapshotsPruned EventType = "snapshots.pruned"
)

// Event is a single published event
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler processes a published event. Handlers must not block; slow consumers
// should buffer internally (the SSE stream uses a buffered channel and drops).
type Handler func(event *Event)

// Bus is a minimal publish/subscribe event bus
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all subscribed handlers synchronously
func (b *Bus) Emit(eventType EventType, module string, data interface{}) {
	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := &Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	for _, handler := range handlers {
		handler(event)
	}
}
