package events

import (
	"sync"
	"time"
)

// FailedEvent is an event whose delivery failed.
type FailedEvent struct {
	Event     Event
	Error     error
	Timestamp time.Time
}

// DeadLetterQueue stores events that could not be delivered.
type DeadLetterQueue struct {
	mu     sync.RWMutex
	failed []FailedEvent
}

func NewDeadLetterQueue() *DeadLetterQueue {
	return &DeadLetterQueue{}
}

// Enqueue adds a failed event to the queue.
func (q *DeadLetterQueue) Enqueue(fe FailedEvent) {
	q.mu.Lock()
	q.failed = append(q.failed, fe)
	q.mu.Unlock()
}

// All returns a copy of the queued events, oldest first.
func (q *DeadLetterQueue) All() []FailedEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]FailedEvent, len(q.failed))
	copy(out, q.failed)
	return out
}

// Drain removes and returns every queued event.
func (q *DeadLetterQueue) Drain() []FailedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.failed
	q.failed = nil
	return out
}

func (q *DeadLetterQueue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.failed)
}
