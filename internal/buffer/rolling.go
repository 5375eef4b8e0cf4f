// Package buffer implements the rolling pre-trigger frame history.
package buffer

import (
	"sync"
	"time"

	"github.com/framesync/framesync/internal/frame"
)

// Rolling is a ring of recent frame records bounded by both a frame
// count and a maximum age. A single writer (the ingestion path) calls
// Insert; all other access goes through Snapshot and the counter
// accessors, which hold the lock only for the copy itself.
type Rolling struct {
	mu        sync.Mutex
	records   []frame.Record
	head      int // index of the oldest record
	size      int
	maxFrames int
	maxAge    time.Duration
	inserted  uint64
	evicted   uint64
}

// NewRolling creates a buffer holding at most maxFrames records no
// older than maxAge relative to the newest inserted record. A maxAge
// of zero disables the age bound.
func NewRolling(maxFrames int, maxAge time.Duration) *Rolling {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &Rolling{
		records:   make([]frame.Record, maxFrames),
		maxFrames: maxFrames,
		maxAge:    maxAge,
	}
}

// Insert appends a record and evicts from the front while either bound
// is exceeded. Age eviction is relative to the inserted record's
// capture time, so the buffer tracks the frame clock rather than wall
// time between frames.
func (b *Rolling) Insert(rec frame.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.maxFrames {
		b.popLocked()
	}
	b.records[(b.head+b.size)%b.maxFrames] = rec
	b.size++
	b.inserted++

	if b.maxAge > 0 {
		cutoff := rec.CaptureTime - b.maxAge.Seconds()
		for b.size > 1 && b.records[b.head].CaptureTime < cutoff {
			b.popLocked()
		}
	}
}

func (b *Rolling) popLocked() {
	b.head = (b.head + 1) % b.maxFrames
	b.size--
	b.evicted++
}

// Snapshot returns a copy of the current contents in insertion order.
// Callers own the returned slice; the buffer lock is released before
// the caller touches it.
func (b *Rolling) Snapshot() []frame.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]frame.Record, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.records[(b.head+i)%b.maxFrames]
	}
	return out
}

// Len returns the current number of buffered records.
func (b *Rolling) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// MaxFrames returns the configured hard cap.
func (b *Rolling) MaxFrames() int {
	return b.maxFrames
}

// MaxAge returns the configured age bound.
func (b *Rolling) MaxAge() time.Duration {
	return b.maxAge
}

// Utilization returns len/maxFrames in [0,1].
func (b *Rolling) Utilization() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.size) / float64(b.maxFrames)
}

// OldestAge returns the age of the oldest buffered record relative to
// now, or false when the buffer is empty.
func (b *Rolling) OldestAge(now time.Time) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		return 0, false
	}
	return b.records[b.head].Age(now), true
}

// Counters returns lifetime insert and eviction totals.
func (b *Rolling) Counters() (inserted, evicted uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inserted, b.evicted
}
