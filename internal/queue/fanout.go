// Package queue implements the bounded fan-out conduit between the
// marker ingestor and its steady-state consumers.
package queue

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/framesync/framesync/internal/frame"
)

// DefaultCapacity sizes each consumer cursor for roughly 100 seconds
// of frames at 100 Hz.
const DefaultCapacity = 10000

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("queue closed")

// Subscriber is one consumer's cursor into the fan-out queue. Each
// subscriber owns an independent bounded channel, so a slow consumer
// drops its own oldest entries without stalling the producer or its
// peers.
type Subscriber struct {
	name  string
	ch    chan frame.Record
	drops atomic.Uint64
}

// Name returns the subscriber's registered name.
func (s *Subscriber) Name() string { return s.name }

// Records returns the receive channel. It is closed when the queue is
// closed and all queued records have been delivered.
func (s *Subscriber) Records() <-chan frame.Record { return s.ch }

// Depth returns the number of records currently queued for this
// subscriber.
func (s *Subscriber) Depth() int { return len(s.ch) }

// Drops returns how many records were evicted because this subscriber
// fell behind.
func (s *Subscriber) Drops() uint64 { return s.drops.Load() }

// Fanout distributes each pushed record to every subscriber. Push
// never blocks: a full subscriber loses its oldest queued record
// (liveness of the producer over completeness; the rolling buffer is
// the durable record).
type Fanout struct {
	mu       sync.RWMutex
	capacity int
	subs     []*Subscriber
	closed   bool
	pushed   atomic.Uint64
}

// NewFanout creates a queue with the given per-subscriber capacity.
func NewFanout(capacity int) *Fanout {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Fanout{capacity: capacity}
}

// Subscribe registers a named consumer. Must be called before the
// producer starts pushing; subscribers cannot be removed.
func (q *Fanout) Subscribe(name string) *Subscriber {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub := &Subscriber{
		name: name,
		ch:   make(chan frame.Record, q.capacity),
	}
	q.subs = append(q.subs, sub)
	return sub
}

// Push offers a record to every subscriber. Returns ErrClosed after
// Close; otherwise never fails and never blocks.
func (q *Fanout) Push(rec frame.Record) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	q.pushed.Add(1)
	for _, sub := range q.subs {
		select {
		case sub.ch <- rec:
			continue
		default:
		}

		// Subscriber full: evict its oldest entry, then retry once.
		// The retry can still race a concurrent drain, in which case
		// the send succeeds immediately.
		select {
		case <-sub.ch:
			sub.drops.Add(1)
		default:
		}
		select {
		case sub.ch <- rec:
		default:
			sub.drops.Add(1)
		}
	}
	return nil
}

// Close marks end-of-stream. Queued records remain deliverable; each
// subscriber's channel is closed so consumers drain and exit.
func (q *Fanout) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for _, sub := range q.subs {
		close(sub.ch)
	}
}

// Capacity returns the per-subscriber capacity.
func (q *Fanout) Capacity() int { return q.capacity }

// Pushed returns the total number of records offered to the queue.
func (q *Fanout) Pushed() uint64 { return q.pushed.Load() }

// Depth returns the deepest subscriber backlog, the queue-level
// depth reported in status snapshots.
func (q *Fanout) Depth() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	depth := 0
	for _, sub := range q.subs {
		if d := len(sub.ch); d > depth {
			depth = d
		}
	}
	return depth
}

// Subscribers returns the registered consumer cursors for status
// reporting.
func (q *Fanout) Subscribers() []*Subscriber {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]*Subscriber(nil), q.subs...)
}

// Drops returns the total records dropped across all subscribers.
func (q *Fanout) Drops() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var total uint64
	for _, sub := range q.subs {
		total += sub.drops.Load()
	}
	return total
}
