package recorder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/framesync/framesync/internal/frame"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessRecorderHandleLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want uint64
	}{
		{"bare counter", "frames=120", 120},
		{"embedded in status", "status ok frames=42 rate=100", 42},
		{"no counter", "encoding output.raw", 0},
		{"malformed counter", "frames=abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewProcessRecorder("true", discardLogger(), nil)
			r.HandleLine("stdout", tt.line)
			if got := r.frames.Load(); got != tt.want {
				t.Errorf("frames = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProcessRecorderWritesSeed(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "rec-1")

	r := NewProcessRecorder(`sh -c "sleep 10"`, discardLogger(), nil)
	err := r.Begin(context.Background(), StartOptions{
		Output: output,
		PreTrigger: []frame.Record{
			{Number: 1, CaptureTime: 100.0},
			{Number: 2, CaptureTime: 100.01, Trigger: frame.TriggerRemote},
		},
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer r.End()

	data, err := os.ReadFile(output + ".pretrigger.json")
	if err != nil {
		t.Fatalf("seed file: %v", err)
	}

	var seed []frame.Record
	if err := json.Unmarshal(data, &seed); err != nil {
		t.Fatalf("seed decode: %v", err)
	}
	if len(seed) != 2 || seed[1].Trigger != frame.TriggerRemote {
		t.Errorf("seed = %+v, want 2 records with trigger on the second", seed)
	}
}

func TestProcessRecorderRejectsDoubleBegin(t *testing.T) {
	r := NewProcessRecorder(`sh -c "sleep 10"`, discardLogger(), nil)

	if err := r.Begin(context.Background(), StartOptions{Output: filepath.Join(t.TempDir(), "a")}); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	defer r.End()

	err := r.Begin(context.Background(), StartOptions{Output: filepath.Join(t.TempDir(), "b")})
	if err != ErrSessionActive {
		t.Errorf("second Begin = %v, want ErrSessionActive", err)
	}
}

func TestProcessRecorderEndWithoutBegin(t *testing.T) {
	r := NewProcessRecorder("true", discardLogger(), nil)

	summary, err := r.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if summary.FramesWritten != 0 {
		t.Errorf("FramesWritten = %d, want 0", summary.FramesWritten)
	}
}

func TestProcessRecorderDoneSignalsExit(t *testing.T) {
	r := NewProcessRecorder("true", discardLogger(), nil)

	// Inactive recorder: Done never fires.
	select {
	case <-r.Done():
		t.Fatal("Done fired with no active session")
	case <-time.After(50 * time.Millisecond):
	}

	if err := r.Begin(context.Background(), StartOptions{Output: filepath.Join(t.TempDir(), "rec")}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// `true` exits immediately; Done must close on its own.
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done did not fire after recorder exit")
	}
	r.End()
}
