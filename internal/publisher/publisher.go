// Package publisher drains ingested frames onto the external
// real-time bus at the rate frames arrive.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framesync/framesync/internal/bus"
	"github.com/framesync/framesync/internal/frame"
	"github.com/framesync/framesync/internal/queue"
)

// SampleWriter publishes one sample to the bus. Satisfied by
// *bus.Client.
type SampleWriter interface {
	PublishSample(bus.Sample) error
}

// Stats is a point-in-time copy of the publisher counters.
type Stats struct {
	Published uint64  `json:"published"`
	Failed    uint64  `json:"failed"`
	RateHz    float64 `json:"rate_hz"`
}

// Publisher republishes each frame record as a 3-channel sample.
// Publication is frame-driven: the cadence is whatever the queue
// delivers, nominally the sensor rate. The publisher never blocks the
// ingestor and keeps running regardless of recording state.
type Publisher struct {
	sub    *queue.Subscriber
	writer SampleWriter
	logger *slog.Logger

	published atomic.Uint64
	failed    atomic.Uint64

	rateMu   sync.Mutex
	lastPub  time.Time
	interval float64 // EWMA of inter-publish gap, seconds
}

// ewmaAlpha weights the inter-publish interval estimate; ~20 samples
// of history.
const ewmaAlpha = 0.05

// New creates a publisher draining sub into writer.
func New(sub *queue.Subscriber, writer SampleWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sub:    sub,
		writer: writer,
		logger: logger,
	}
}

// Run drains the subscriber until its channel closes (end-of-stream,
// after which all queued records have been delivered) or the context
// is cancelled for a hard stop. Cancellation still publishes the
// backlog queued at that moment; queued frames are never discarded.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return ctx.Err()
		case rec, ok := <-p.sub.Records():
			if !ok {
				p.logger.Info("Frame stream closed, publisher exiting",
					"published", p.published.Load(), "failed", p.failed.Load())
				return nil
			}
			p.publish(rec)
		}
	}
}

// drain publishes the backlog present at cancellation time, bounded by
// the depth observed on entry.
func (p *Publisher) drain() {
	n := p.sub.Depth()
	for ; n > 0; n-- {
		rec, ok := <-p.sub.Records()
		if !ok {
			break
		}
		p.publish(rec)
	}
	p.logger.Info("Publisher stopped",
		"published", p.published.Load(), "failed", p.failed.Load())
}

func (p *Publisher) publish(rec frame.Record) {
	sample := bus.Sample{
		FrameNumber: float64(rec.Number),
		CaptureTime: rec.CaptureTime,
		TriggerType: float64(rec.Trigger),
	}

	if err := p.writer.PublishSample(sample); err != nil {
		// Transient transport failure: count, skip, keep going.
		p.failed.Add(1)
		p.logger.Debug("Sample publish failed", "frame", rec.Number, "error", err)
		return
	}

	p.published.Add(1)
	p.observe(time.Now())
}

func (p *Publisher) observe(now time.Time) {
	p.rateMu.Lock()
	defer p.rateMu.Unlock()

	if !p.lastPub.IsZero() {
		gap := now.Sub(p.lastPub).Seconds()
		if p.interval == 0 {
			p.interval = gap
		} else {
			p.interval = (1-ewmaAlpha)*p.interval + ewmaAlpha*gap
		}
	}
	p.lastPub = now
}

// Rate returns the effective publish rate in Hz, 0 until two samples
// have been published.
func (p *Publisher) Rate() float64 {
	p.rateMu.Lock()
	defer p.rateMu.Unlock()

	if p.interval <= 0 {
		return 0
	}
	return 1 / p.interval
}

// Stats returns a copy of the current counters.
func (p *Publisher) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
		RateHz:    p.Rate(),
	}
}
