package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/framesync/framesync/internal/buffer"
	"github.com/framesync/framesync/internal/events"
	"github.com/framesync/framesync/internal/frame"
)

// fakeRecorder is an in-memory Recorder for controller tests.
type fakeRecorder struct {
	mu         sync.Mutex
	begun      int
	ended      int
	beginErr   error
	lastOpts   StartOptions
	done       chan struct{}
	frames     uint64
	endElapsed time.Duration
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{done: make(chan struct{})}
}

func (f *fakeRecorder) Begin(_ context.Context, opts StartOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return f.beginErr
	}
	f.begun++
	f.lastOpts = opts
	f.done = make(chan struct{})
	return nil
}

func (f *fakeRecorder) End() (Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended++
	return Summary{FramesWritten: f.frames, Elapsed: f.endElapsed}, nil
}

func (f *fakeRecorder) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// exit simulates the recorder process terminating on its own.
func (f *fakeRecorder) exit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.done)
}

func newTestController(rec Recorder, buf *buffer.Rolling) *Controller {
	return NewController(Options{
		Recorder:  rec,
		Buffer:    buf,
		Bus:       events.New(),
		OutputDir: "/tmp",
		Tick:      5 * time.Millisecond,
	})
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller state = %v, want %v", c.State(), want)
}

func TestSessionMarshalsDurationsAsSeconds(t *testing.T) {
	session := Session{
		ID:                "s1",
		StartTime:         time.Now(),
		RequestedDuration: 5 * time.Second,
		Status:            StateIdle,
		Elapsed:           2500 * time.Millisecond,
	}

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v := got["requested_duration_seconds"]; v != 5.0 {
		t.Errorf("requested_duration_seconds = %v, want 5", v)
	}
	if v := got["elapsed_seconds"]; v != 2.5 {
		t.Errorf("elapsed_seconds = %v, want 2.5", v)
	}
}

func TestControllerStartStop(t *testing.T) {
	rec := newFakeRecorder()
	rec.frames = 42
	c := newTestController(rec, nil)

	result := c.Start(context.Background(), 0)
	if !result.Changed || result.Status != "recording" {
		t.Fatalf("Start = %+v, want changed recording", result)
	}
	if c.State() != StateActive {
		t.Fatalf("State = %v, want active", c.State())
	}
	if result.Session.ID == "" {
		t.Error("session has no ID")
	}

	stop := c.Stop()
	if !stop.Changed || stop.Status != "stopped" {
		t.Fatalf("Stop = %+v, want changed stopped", stop)
	}
	if c.State() != StateIdle {
		t.Errorf("State after Stop = %v, want idle", c.State())
	}

	last, ok := c.LastSession()
	if !ok {
		t.Fatal("LastSession missing after stop")
	}
	if last.StopReason != ReasonStopCommand {
		t.Errorf("StopReason = %q, want %q", last.StopReason, ReasonStopCommand)
	}
	if last.FramesWritten != 42 {
		t.Errorf("FramesWritten = %d, want 42", last.FramesWritten)
	}
	if c.Total() != 1 {
		t.Errorf("Total = %d, want 1", c.Total())
	}
}

func TestControllerStartWhileActiveIsNoOp(t *testing.T) {
	rec := newFakeRecorder()
	c := newTestController(rec, nil)

	first := c.Start(context.Background(), 0)
	second := c.Start(context.Background(), 0)

	if second.Changed {
		t.Error("second Start reported a state change")
	}
	if second.Status != "already recording" {
		t.Errorf("second Start status = %q, want already recording", second.Status)
	}
	if second.Session.ID != first.Session.ID {
		t.Error("second Start did not report the active session")
	}
	if rec.begun != 1 {
		t.Errorf("recorder Begin called %d times, want 1", rec.begun)
	}

	c.Stop()
}

func TestControllerStopWhileIdleIsNoOp(t *testing.T) {
	c := newTestController(newFakeRecorder(), nil)

	result := c.Stop()
	if result.Changed {
		t.Error("Stop while idle reported a state change")
	}
	if result.Status != "not recording" {
		t.Errorf("status = %q, want not recording", result.Status)
	}
}

func TestControllerDurationExpiry(t *testing.T) {
	rec := newFakeRecorder()
	c := newTestController(rec, nil)

	result := c.Start(context.Background(), 20*time.Millisecond)
	if !result.Changed {
		t.Fatalf("Start = %+v", result)
	}

	waitForState(t, c, StateIdle)

	last, ok := c.LastSession()
	if !ok {
		t.Fatal("LastSession missing after expiry")
	}
	if last.StopReason != ReasonDurationExpired {
		t.Errorf("StopReason = %q, want %q", last.StopReason, ReasonDurationExpired)
	}
}

func TestControllerRecorderExitReturnsToIdle(t *testing.T) {
	rec := newFakeRecorder()
	c := newTestController(rec, nil)

	if result := c.Start(context.Background(), 0); !result.Changed {
		t.Fatalf("Start = %+v", result)
	}

	rec.exit()
	waitForState(t, c, StateIdle)

	last, _ := c.LastSession()
	if last.StopReason != ReasonRecorderExit {
		t.Errorf("StopReason = %q, want %q", last.StopReason, ReasonRecorderExit)
	}
}

func TestControllerSeedsPreTriggerSnapshot(t *testing.T) {
	buf := buffer.NewRolling(10, 0)
	for i := 1; i <= 4; i++ {
		buf.Insert(frame.Record{Number: uint64(i), CaptureTime: float64(i)})
	}

	rec := newFakeRecorder()
	c := newTestController(rec, buf)

	result := c.Start(context.Background(), 0)
	if result.Session.PreTriggerCount != 4 {
		t.Errorf("PreTriggerCount = %d, want 4", result.Session.PreTriggerCount)
	}
	if len(rec.lastOpts.PreTrigger) != 4 {
		t.Errorf("recorder received %d pre-trigger frames, want 4", len(rec.lastOpts.PreTrigger))
	}
	if rec.lastOpts.Output == "" {
		t.Error("recorder received no output target")
	}

	c.Stop()
}

func TestControllerBeginErrorStaysIdle(t *testing.T) {
	rec := newFakeRecorder()
	rec.beginErr = errors.New("device busy")
	c := newTestController(rec, nil)

	result := c.Start(context.Background(), 0)
	if result.Changed {
		t.Error("failed Start reported a state change")
	}
	if c.State() != StateIdle {
		t.Errorf("State = %v, want idle after Begin failure", c.State())
	}
	if c.Total() != 0 {
		t.Errorf("Total = %d, want 0", c.Total())
	}
}

func TestControllerShutdownStopsActiveSession(t *testing.T) {
	rec := newFakeRecorder()
	c := newTestController(rec, nil)

	c.Start(context.Background(), 0)
	c.Shutdown()

	if c.State() != StateIdle {
		t.Errorf("State = %v, want idle after Shutdown", c.State())
	}
	last, _ := c.LastSession()
	if last.StopReason != ReasonShutdown {
		t.Errorf("StopReason = %q, want %q", last.StopReason, ReasonShutdown)
	}
}
