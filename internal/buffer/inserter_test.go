package buffer

import (
	"context"
	"testing"
	"time"

	"github.com/framesync/framesync/internal/frame"
	"github.com/framesync/framesync/internal/queue"
)

func TestInserterDrainsUntilClose(t *testing.T) {
	q := queue.NewFanout(100)
	sub := q.Subscribe("buffer")
	b := NewRolling(100, 0)

	for i := 1; i <= 10; i++ {
		_ = q.Push(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}
	q.Close()

	done := make(chan error, 1)
	go func() {
		done <- NewInserter(sub, b, nil).Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inserter did not exit after queue close")
	}

	if b.Len() != 10 {
		t.Errorf("buffered %d records, want 10", b.Len())
	}
}

func TestInserterDrainsBacklogOnCancel(t *testing.T) {
	const backlog = 1000
	q := queue.NewFanout(backlog)
	sub := q.Subscribe("buffer")
	b := NewRolling(backlog, 0)

	for i := 1; i <= backlog; i++ {
		_ = q.Push(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}
	q.Close()

	// Cancel before the worker starts: everything already queued must
	// still land in the buffer.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewInserter(sub, b, nil).Run(ctx)
	}()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inserter did not exit on cancel")
	}

	if b.Len() != backlog {
		t.Errorf("buffered %d of %d queued records on shutdown", b.Len(), backlog)
	}
}

func TestInserterStopsOnCancel(t *testing.T) {
	q := queue.NewFanout(10)
	sub := q.Subscribe("buffer")
	b := NewRolling(10, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewInserter(sub, b, nil).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inserter did not exit on cancel")
	}
}
