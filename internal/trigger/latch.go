// Package trigger holds the shared latch that tags the next ingested
// frame with its cause.
package trigger

import (
	"sync"
	"time"

	"github.com/framesync/framesync/internal/frame"
)

// Mode controls how a raised trigger is consumed by the ingestor.
type Mode string

const (
	// ModeEdge clears the latch after stamping exactly one frame.
	ModeEdge Mode = "edge"
	// ModeLevel keeps the latch raised until it is explicitly replaced.
	ModeLevel Mode = "level"
)

// ParseMode returns the Mode for a config string, defaulting to edge.
func ParseMode(s string) Mode {
	if s == string(ModeLevel) {
		return ModeLevel
	}
	return ModeEdge
}

// Latch is the shared trigger state. Command handlers call Set, the
// ingestor calls Stamp once per frame. All methods are safe for
// concurrent use; the critical section covers only the field swap.
type Latch struct {
	mu    sync.Mutex
	mode  Mode
	kind  frame.TriggerKind
	setAt time.Time
}

// NewLatch creates a latch in the given mode with no trigger raised.
func NewLatch(mode Mode) *Latch {
	return &Latch{mode: mode}
}

// Set raises the trigger, replacing any previous value.
func (l *Latch) Set(kind frame.TriggerKind) {
	l.mu.Lock()
	l.kind = kind
	l.setAt = time.Now()
	l.mu.Unlock()
}

// Stamp returns the trigger to apply to the next frame. In edge mode
// the latch falls back to TriggerNone after one stamp; in level mode
// the raised value persists until replaced.
func (l *Latch) Stamp() frame.TriggerKind {
	l.mu.Lock()
	defer l.mu.Unlock()

	kind := l.kind
	if l.mode == ModeEdge {
		l.kind = frame.TriggerNone
	}
	return kind
}

// Current returns the raised trigger and when it was set, without
// consuming it.
func (l *Latch) Current() (frame.TriggerKind, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kind, l.setAt
}

// Mode returns the configured consumption mode.
func (l *Latch) Mode() Mode {
	return l.mode
}
