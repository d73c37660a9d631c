// Package events carries state-change notifications to interested observers.
//
// Delivery is at-most-once and best effort: a publisher may drop an event
// (slow subscriber, broker unavailable) and never retries. Every event has
// a unique ID so consumers that see the same event through more than one
// path can de-duplicate. Nothing is ordered.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const RoomUpdate = "room_update"

type Event struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

func New(name string, payload map[string]any) Event {
	return Event{ID: uuid.NewString(), Name: name, Payload: payload, At: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
