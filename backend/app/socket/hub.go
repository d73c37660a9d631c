package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"apnaghar/backend/app/events"
	"apnaghar/backend/global"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan events.Event
}

// Hub broadcasts events to connected Server-Sent-Events clients. A client
// whose buffer is full misses the event.
type Hub struct {
	mu        sync.RWMutex
	byID      map[string]*subscriber
	keepAlive time.Duration
}

func NewHub() *Hub {
	return &Hub{byID: make(map[string]*subscriber), keepAlive: 25 * time.Second}
}

func (h *Hub) Register() (string, <-chan events.Event) {
	id := uuid.NewString()
	s := &subscriber{ch: make(chan events.Event, subscriberBuffer)}
	h.mu.Lock()
	h.byID[id] = s
	h.mu.Unlock()
	return id, s.ch
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	if s, ok := h.byID[id]; ok {
		delete(h.byID, id)
		close(s.ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byID)
}

// Publish never blocks.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for _, s := range h.byID {
		select {
		case s.ch <- e:
		default:
			dropped++
		}
	}
	global.Logger.Debug().
		Str("event", e.Name).
		Str("event_id", e.ID).
		Int("subscribers", len(h.byID)).
		Int("dropped", dropped).
		Msg("hub broadcast")
	return nil
}

// ServeHTTP streams events to the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		global.Logger.Warn().Err(err).Msg("event stream: flush unsupported")
		return
	}

	id, ch := h.Register()
	defer h.Unregister(id)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Name, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
