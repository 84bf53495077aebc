package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// ─────────────────────────────────────────────────────────────
// Broadcaster — server-sent events fan-out
// ─────────────────────────────────────────────────────────────

// Broadcaster implements service.EventEmitter over an SSE stream.
// Every connected client gets every event; slow clients drop events
// rather than block the services.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan []byte]struct{})}
}

type eventEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Emit fans an event out to all subscribers.
func (b *Broadcaster) Emit(_ context.Context, event string, data any) {
	payload, err := json.Marshal(eventEnvelope{Event: event, Data: data})
	if err != nil {
		log.Printf("events: marshal %q: %v", event, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- payload:
		default:
			// Subscriber buffer full; skip rather than stall.
		}
	}
}

func (b *Broadcaster) subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Handler returns the GET /api/events endpoint. It streams events until
// the client disconnects.
func (b *Broadcaster) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		w.Flush()

		ch := b.subscribe()
		defer b.unsubscribe(ch)

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case payload := <-ch:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return nil
				}
				w.Flush()
			}
		}
	}
}
