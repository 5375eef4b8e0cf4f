package buffer

import (
	"testing"
	"time"

	"github.com/framesync/framesync/internal/frame"
)

func TestRollingCountBound(t *testing.T) {
	b := NewRolling(3, 0)

	for i := 1; i <= 5; i++ {
		b.Insert(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	snap := b.Snapshot()
	if snap[0].Number != 3 || snap[2].Number != 5 {
		t.Errorf("snapshot = %v, want frames 3..5", snap)
	}
	inserted, evicted := b.Counters()
	if inserted != 5 || evicted != 2 {
		t.Errorf("counters = %d inserted, %d evicted, want 5, 2", inserted, evicted)
	}
}

func TestRollingAgeBound(t *testing.T) {
	b := NewRolling(100, 10*time.Second)

	// 0s..20s of capture time, one frame per second. Anything more
	// than 10s older than the newest frame must be gone.
	for i := 0; i <= 20; i++ {
		b.Insert(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}

	snap := b.Snapshot()
	newest := snap[len(snap)-1].CaptureTime
	for _, rec := range snap {
		if newest-rec.CaptureTime > 10 {
			t.Errorf("frame %d aged %.1fs survived a 10s bound", rec.Number, newest-rec.CaptureTime)
		}
	}
}

func TestRollingBothBoundsHold(t *testing.T) {
	// The acceptance scenario: 1,500 frames spaced 10 ms apart into a
	// buffer capped at 1,500 frames and 15 s. Length stabilizes at the
	// cap and the oldest record's age at roughly the age bound.
	b := NewRolling(1500, 15*time.Second)

	base := 1000.0
	var n uint64
	for i := 0; i < 3000; i++ {
		n++
		b.Insert(frame.Record{Number: n, CaptureTime: base + float64(i)*0.010})
	}

	if b.Len() != 1500 {
		t.Errorf("Len = %d, want 1500", b.Len())
	}
	if got := b.Utilization(); got != 1.0 {
		t.Errorf("Utilization = %v, want 1.0", got)
	}
	snap := b.Snapshot()
	span := snap[len(snap)-1].CaptureTime - snap[0].CaptureTime
	if span < 14.9 || span > 15.0 {
		t.Errorf("buffered span = %.3fs, want ~15s", span)
	}
}

func TestRollingSnapshotIsACopy(t *testing.T) {
	b := NewRolling(10, 0)
	b.Insert(frame.Record{Number: 1, CaptureTime: 1})

	snap := b.Snapshot()
	snap[0].Number = 999

	if got := b.Snapshot()[0].Number; got != 1 {
		t.Errorf("buffer mutated through snapshot: Number = %d", got)
	}
}

func TestRollingOldestAge(t *testing.T) {
	b := NewRolling(10, 0)

	if _, ok := b.OldestAge(time.Now()); ok {
		t.Error("OldestAge reported a value for an empty buffer")
	}

	now := time.Now()
	captured := float64(now.Add(-2*time.Second).UnixNano()) / float64(time.Second)
	b.Insert(frame.Record{Number: 1, CaptureTime: captured})

	age, ok := b.OldestAge(now)
	if !ok {
		t.Fatal("OldestAge = not ok, want ok")
	}
	if age < 1900*time.Millisecond || age > 2100*time.Millisecond {
		t.Errorf("OldestAge = %v, want ~2s", age)
	}
}

func TestRollingConcurrentSnapshot(t *testing.T) {
	const maxFrames = 100
	const inserts = 5000
	b := NewRolling(maxFrames, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint64(1); i <= inserts; i++ {
			b.Insert(frame.Record{Number: i, CaptureTime: float64(i) * 0.01})
		}
	}()

	// Snapshot continuously while the writer runs: length never
	// exceeds the cap and frame numbers stay strictly increasing
	// within every snapshot.
	for stopped := false; !stopped; {
		select {
		case <-done:
			stopped = true
		default:
		}

		snap := b.Snapshot()
		if len(snap) > maxFrames {
			t.Fatalf("snapshot length %d exceeds max frames %d", len(snap), maxFrames)
		}
		for j := 1; j < len(snap); j++ {
			if snap[j].Number <= snap[j-1].Number {
				t.Fatalf("snapshot out of order at %d: %d after %d",
					j, snap[j].Number, snap[j-1].Number)
			}
		}
	}

	final := b.Snapshot()
	if len(final) != maxFrames {
		t.Errorf("final snapshot length = %d, want %d", len(final), maxFrames)
	}
	if final[len(final)-1].Number != inserts {
		t.Errorf("final newest frame = %d, want %d", final[len(final)-1].Number, inserts)
	}
}

func TestRollingMinimumCapacity(t *testing.T) {
	b := NewRolling(0, 0)
	b.Insert(frame.Record{Number: 1})
	b.Insert(frame.Record{Number: 2})

	if b.Len() != 1 || b.MaxFrames() != 1 {
		t.Errorf("Len, MaxFrames = %d, %d, want 1, 1", b.Len(), b.MaxFrames())
	}
}
