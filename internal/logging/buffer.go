package logging

import (
	"sync"
	"time"
)

// LogEntry is one log line held in the ring buffer, the shape served
// by the log API and streamed over SSE.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer retains the most recent log entries. Writes overwrite
// the oldest entry once the buffer is full. Safe for concurrent use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int // index the next write lands on
	full    bool
}

// NewRingBuffer creates a ring buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, size)}
}

// Write appends an entry, evicting the oldest when full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// ReadAll returns the retained entries, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		if rb.next == 0 {
			return nil
		}
		out := make([]LogEntry, rb.next)
		copy(out, rb.entries[:rb.next])
		return out
	}

	// Full buffer wraps; the oldest entry sits at the write cursor.
	out := make([]LogEntry, 0, len(rb.entries))
	out = append(out, rb.entries[rb.next:]...)
	out = append(out, rb.entries[:rb.next]...)
	return out
}

// Count reports the number of retained entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}
