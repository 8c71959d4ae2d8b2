package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
)

// Broker fans service events out to connected frontends over
// server-sent events. It implements service.EventEmitter.
type Broker struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan string]struct{}{}}
}

// Emit delivers an event to every connected subscriber. Slow consumers
// drop events rather than block the emitting service.
func (b *Broker) Emit(_ context.Context, event string, data any) {
	payload, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- string(payload):
		default:
		}
	}
}

func (b *Broker) subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// HandleEvents streams events to the client as SSE until it disconnects.
func (b *Broker) HandleEvents(c echo.Context) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(200)
	resp.Flush()

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case msg := <-ch:
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", msg); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
