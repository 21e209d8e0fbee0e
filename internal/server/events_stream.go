package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
)

// streamEventTypes are the event types forwarded to SSE clients when no
// filter is requested.
var streamEventTypes = []events.EventType{
	events.ForecastProgress,
	events.ForecastCompleted,
	events.ForecastFailed,
	events.CacheSwept,
	events.SnapshotsPruned,
}

// EventsStreamHandler streams domain events to clients over Server-Sent
// Events. Presentation layers follow forecast progress through this stream
// instead of polling.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE). The optional
// "types" query parameter is a comma-separated event type filter.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var allowed map[events.EventType]bool
	if raw := r.URL.Query().Get("types"); raw != "" {
		allowed = make(map[events.EventType]bool)
		for _, t := range strings.Split(raw, ",") {
			allowed[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	// Buffered so a slow client drops events instead of blocking publishers.
	eventChan := make(chan *events.Event, 100)
	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().Str("event_type", string(event.Type)).Msg("event channel full, dropping event")
		}
	}

	for _, eventType := range streamEventTypes {
		if allowed != nil && !allowed[eventType] {
			continue
		}
		h.bus.Subscribe(eventType, handler)
	}

	h.log.Info().Msg("client connected to event stream")

	fmt.Fprintf(w, "data: %s\n\n", h.encode(map[string]interface{}{
		"type":    "connected",
		"message": "connected to event stream",
	}))
	flusher.Flush()

	done := r.Context().Done()
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			h.log.Info().Msg("client disconnected from event stream")
			return

		case event := <-eventChan:
			fmt.Fprintf(w, "data: %s\n\n", h.encode(event))
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) encode(payload interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode event")
		return "{}"
	}
	return string(data)
}
