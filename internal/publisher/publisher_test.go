package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/framesync/framesync/internal/bus"
	"github.com/framesync/framesync/internal/frame"
	"github.com/framesync/framesync/internal/queue"
)

// captureWriter records published samples and optionally fails every
// other publish.
type captureWriter struct {
	mu       sync.Mutex
	samples  []bus.Sample
	failNext bool
	flaky    bool
}

func (w *captureWriter) PublishSample(s bus.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.flaky {
		w.failNext = !w.failNext
		if !w.failNext {
			return errors.New("bus unavailable")
		}
	}
	w.samples = append(w.samples, s)
	return nil
}

func (w *captureWriter) captured() []bus.Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]bus.Sample(nil), w.samples...)
}

func runToClose(t *testing.T, p *Publisher) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not exit after queue close")
	}
}

func TestPublisherDrainsBacklogOnCancel(t *testing.T) {
	const backlog = 500
	q := queue.NewFanout(backlog)
	sub := q.Subscribe("publisher")
	w := &captureWriter{}

	for i := 1; i <= backlog; i++ {
		_ = q.Push(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}
	q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(sub, w, nil)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not exit on cancel")
	}

	if got := len(w.captured()); got != backlog {
		t.Errorf("published %d of %d queued records on shutdown", got, backlog)
	}
}

func TestPublisherConvertsRecords(t *testing.T) {
	q := queue.NewFanout(100)
	sub := q.Subscribe("publisher")
	w := &captureWriter{}
	p := New(sub, w, nil)

	_ = q.Push(frame.Record{Number: 1042, CaptureTime: 1714071543.02, Trigger: frame.TriggerRemote})
	q.Close()
	runToClose(t, p)

	samples := w.captured()
	if len(samples) != 1 {
		t.Fatalf("captured %d samples, want 1", len(samples))
	}
	s := samples[0]
	if s.FrameNumber != 1042 || s.CaptureTime != 1714071543.02 || s.TriggerType != 2 {
		t.Errorf("sample = %+v, want [1042 1714071543.02 2]", s)
	}
	if got := p.Stats().Published; got != 1 {
		t.Errorf("Published = %d, want 1", got)
	}
}

func TestPublisherCountsFailuresAndContinues(t *testing.T) {
	q := queue.NewFanout(100)
	sub := q.Subscribe("publisher")
	w := &captureWriter{flaky: true}
	p := New(sub, w, nil)

	for i := 1; i <= 10; i++ {
		_ = q.Push(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}
	q.Close()
	runToClose(t, p)

	stats := p.Stats()
	if stats.Published != 5 || stats.Failed != 5 {
		t.Errorf("stats = %+v, want 5 published and 5 failed", stats)
	}
	// Failures skip frames, they never halt the drain.
	if len(w.captured()) != 5 {
		t.Errorf("captured %d samples, want 5", len(w.captured()))
	}
}

func TestPublisherRate(t *testing.T) {
	p := New(nil, &captureWriter{}, nil)

	if got := p.Rate(); got != 0 {
		t.Errorf("Rate before publishing = %v, want 0", got)
	}

	base := time.Now()
	for i := 0; i < 5; i++ {
		p.observe(base.Add(time.Duration(i) * 10 * time.Millisecond))
	}

	rate := p.Rate()
	if rate < 90 || rate > 110 {
		t.Errorf("Rate = %.1f Hz, want ~100 Hz", rate)
	}
}
