// Package marker ingests timestamp markers from the capture process
// and turns them into frame records.
package marker

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/framesync/framesync/internal/events"
	"github.com/framesync/framesync/internal/frame"
	"github.com/framesync/framesync/internal/queue"
	"github.com/framesync/framesync/internal/trigger"
)

// Stats is a point-in-time copy of the ingestor counters.
type Stats struct {
	SessionID  string `json:"session_id"`
	Ingested   uint64 `json:"ingested"`
	Malformed  uint64 `json:"malformed"`
	OutOfOrder uint64 `json:"out_of_order"`
	Dropped    uint64 `json:"dropped"`
	Sessions   uint64 `json:"sessions"`
}

// Ingestor is the single producer feeding the frame queue. It parses
// marker lines, validates frame-number monotonicity, stamps the
// current trigger onto each record and pushes it downstream. Malformed
// or out-of-order input is counted, never fatal.
type Ingestor struct {
	queue  *queue.Fanout
	latch  *trigger.Latch
	bus    *events.Bus
	logger *slog.Logger

	ingested   atomic.Uint64
	malformed  atomic.Uint64
	outOfOrder atomic.Uint64
	dropped    atomic.Uint64
	sessions   atomic.Uint64

	// lastNumber is touched only by the ingestion goroutine.
	lastNumber uint64
	haveLast   bool

	sessionMu sync.Mutex
	sessionID string

	closeOnce sync.Once
}

// NewIngestor creates an ingestor pushing into q. bus may be nil.
func NewIngestor(q *queue.Fanout, latch *trigger.Latch, bus *events.Bus, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	ing := &Ingestor{
		queue:  q,
		latch:  latch,
		bus:    bus,
		logger: logger,
	}
	ing.startSession()
	return ing
}

func (ing *Ingestor) startSession() {
	ing.sessions.Add(1)
	ing.haveLast = false

	ing.sessionMu.Lock()
	ing.sessionID = uuid.NewString()
	ing.sessionMu.Unlock()
}

// SessionID returns the current ingest session identifier.
func (ing *Ingestor) SessionID() string {
	ing.sessionMu.Lock()
	defer ing.sessionMu.Unlock()
	return ing.sessionID
}

// HandleLine feeds one marker line into the engine. Implements the
// process output handler contract so the capture subprocess can be
// wired directly to the ingestor.
func (ing *Ingestor) HandleLine(_, line string) {
	pair, err := ParseLine(line)
	if err != nil {
		ing.malformed.Add(1)
		ing.logger.Debug("Discarding malformed marker line", "line", line)
		return
	}
	ing.ingest(pair)
}

func (ing *Ingestor) ingest(p Pair) {
	if ing.haveLast {
		switch {
		case p.Number == ing.lastNumber:
			// Duplicate frame number, discard.
			ing.outOfOrder.Add(1)
			ing.logger.Debug("Discarding duplicate frame number", "frame", p.Number)
			return
		case p.Number < ing.lastNumber:
			// The counter went backwards: the sensor restarted. Treat
			// as a new session boundary rather than corruption.
			ing.logger.Info("Frame counter decreased, starting new session",
				"last", ing.lastNumber, "frame", p.Number)
			ing.startSession()
		case p.Number > ing.lastNumber+1:
			missed := p.Number - ing.lastNumber - 1
			ing.dropped.Add(missed)
			if ing.bus != nil {
				ing.bus.Publish(events.FrameGapEvent{
					SessionID: ing.SessionID(),
					From:      ing.lastNumber,
					To:        p.Number,
					Missed:    missed,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}
	}
	ing.lastNumber = p.Number
	ing.haveLast = true

	rec := frame.Record{
		Number:      p.Number,
		CaptureTime: p.CaptureTime,
		Trigger:     ing.latch.Stamp(),
	}

	ing.ingested.Add(1)
	if err := ing.queue.Push(rec); err != nil {
		ing.logger.Warn("Frame rejected after shutdown", "frame", rec.Number)
	}
}

// Run reads marker lines from r until EOF or context cancellation.
// The scan runs in its own goroutine so an idle source (stdin with no
// markers flowing) cannot block shutdown; on cancellation the reader
// goroutine is abandoned mid-Read. Either exit path closes the queue
// so downstream workers drain and stop.
func (ing *Ingestor) Run(ctx context.Context, r io.Reader) error {
	defer ing.CloseSource()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-lines:
			ing.HandleLine("marker", line)
		case err := <-scanErr:
			if err != nil {
				ing.logger.Warn("Marker source read error", "error", err)
				return err
			}
			ing.logger.Info("Marker source closed")
			return nil
		}
	}
}

// CloseSource propagates end-of-stream to the queue. Safe to call more
// than once; used by the capture supervisor when the subprocess exits.
func (ing *Ingestor) CloseSource() {
	ing.closeOnce.Do(func() {
		ing.queue.Close()
		if ing.bus != nil {
			ing.bus.Publish(events.SourceStateChangedEvent{
				SessionID: ing.SessionID(),
				State:     "closed",
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	})
}

// Stats returns a copy of the current counters.
func (ing *Ingestor) Stats() Stats {
	return Stats{
		SessionID:  ing.SessionID(),
		Ingested:   ing.ingested.Load(),
		Malformed:  ing.malformed.Load(),
		OutOfOrder: ing.outOfOrder.Load(),
		Dropped:    ing.dropped.Load(),
		Sessions:   ing.sessions.Load(),
	}
}
