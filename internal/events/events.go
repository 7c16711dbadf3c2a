// Package events publishes per-document build outcomes.
//
// Every document rendered by a batch produces one Event. Publishers deliver
// events in process (Bus) or to a NATS subject; failed deliveries are kept
// in a dead-letter queue for inspection.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Event reports the outcome of one document.
type Event struct {
	BuildID     string    `json:"build_id"`
	Document    string    `json:"document"`
	Outcome     string    `json:"outcome"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Attempts    int       `json:"attempts"`
	Time        time.Time `json:"time"`
}

// Encode returns the JSON wire form of e.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.InternalError("failed to marshal event").WithCause(err).Build()
	}
	return data, nil
}

// Decode parses the JSON wire form of an event.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, errors.ValidationError("malformed event payload").WithCause(err).Build()
	}
	return e, nil
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Handler consumes an event; a returned error stops delivery.
type Handler func(ctx context.Context, e Event) error

// Bus is a synchronous in-process publisher that fans events out to its
// subscribers in subscription order.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers h for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, h)
	b.mu.Unlock()
}

// Publish delivers e to all subscribers synchronously.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.subscribers...)
	b.mu.RUnlock()
	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) Close() error { return nil }

// Forward returns a handler that republishes events to p.
func Forward(p Publisher) Handler {
	return func(ctx context.Context, e Event) error { return p.Publish(ctx, e) }
}
