package buffer

import (
	"context"
	"log/slog"

	"github.com/framesync/framesync/internal/queue"
)

// Inserter is the worker that drains the buffer's queue cursor into
// the rolling buffer. It is the buffer's single writer; records arrive
// in frame-number order because the queue preserves producer order per
// subscriber.
type Inserter struct {
	sub    *queue.Subscriber
	buf    *Rolling
	logger *slog.Logger
}

// NewInserter creates the buffer insertion worker.
func NewInserter(sub *queue.Subscriber, buf *Rolling, logger *slog.Logger) *Inserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inserter{sub: sub, buf: buf, logger: logger}
}

// Run inserts until the subscriber channel closes (draining whatever
// is queued) or the context is cancelled for a hard stop. On
// cancellation the records already queued are still inserted before
// exiting; end-of-stream never discards a delivered frame.
func (i *Inserter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			i.drain()
			return ctx.Err()
		case rec, ok := <-i.sub.Records():
			if !ok {
				i.logger.Info("Frame stream closed, buffer inserter exiting", "buffered", i.buf.Len())
				return nil
			}
			i.buf.Insert(rec)
		}
	}
}

// drain empties the backlog present at cancellation time. Bounded by
// the depth observed on entry so a still-live producer cannot keep the
// hard stop alive.
func (i *Inserter) drain() {
	n := i.sub.Depth()
	for ; n > 0; n-- {
		rec, ok := <-i.sub.Records()
		if !ok {
			break
		}
		i.buf.Insert(rec)
	}
	i.logger.Info("Buffer inserter stopped", "buffered", i.buf.Len())
}
