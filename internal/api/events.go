package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/workstake-network/workstake/internal/domain"
)

// EventHub fans lifecycle events out to SSE subscribers. Broadcast never
// blocks: a slow subscriber drops events rather than stalling the market
// engine's transaction.
type EventHub struct {
	mu   sync.Mutex
	subs map[chan domain.Event]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan domain.Event]struct{})}
}

// Broadcast delivers an event to all subscribers, dropping on full buffers.
func (h *EventHub) Broadcast(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber too slow; drop.
		}
	}
}

func (h *EventHub) subscribe() chan domain.Event {
	ch := make(chan domain.Event, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan domain.Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleLiveEvents streams lifecycle events as server-sent events.
func (h *EventHub) HandleLiveEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	fmt.Fprintf(w, ": connected\n\n")
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
