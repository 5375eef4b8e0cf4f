package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framesync/framesync/internal/buffer"
	"github.com/framesync/framesync/internal/events"
)

// State of the recording controller.
type State string

// Controller states.
const (
	StateIdle     State = "idle"
	StateActive   State = "active"
	StateStopping State = "stopping"
)

// Stop reasons recorded on the session.
const (
	ReasonStopCommand     = "stop_command"
	ReasonDurationExpired = "duration_expired"
	ReasonRecorderExit    = "recorder_exit"
	ReasonShutdown        = "shutdown"
)

// defaultTick paces the duration-expiry check so a stop command stays
// responsive while a timed recording runs.
const defaultTick = 250 * time.Millisecond

// Session is one recording session. Owned exclusively by the
// controller; callers receive copies.
type Session struct {
	ID                string        `json:"id"`
	StartTime         time.Time     `json:"start_time"`
	RequestedDuration time.Duration `json:"requested_duration_seconds"`
	FramesSeenAtStart uint64        `json:"frames_seen_at_start"`
	PreTriggerCount   int           `json:"pre_trigger_count"`
	Status            State         `json:"status"`

	// Final counters, populated when the session ends.
	StopReason    string        `json:"stop_reason,omitempty"`
	FramesWritten uint64        `json:"frames_written,omitempty"`
	Elapsed       time.Duration `json:"elapsed_seconds,omitempty"`
}

// MarshalJSON reports the duration fields in seconds, matching the
// recording-stopped event payload. Durations marshal as nanosecond
// integers by default, which is useless to API and bus consumers.
func (s Session) MarshalJSON() ([]byte, error) {
	type payload struct {
		ID                       string    `json:"id"`
		StartTime                time.Time `json:"start_time"`
		RequestedDurationSeconds float64   `json:"requested_duration_seconds"`
		FramesSeenAtStart        uint64    `json:"frames_seen_at_start"`
		PreTriggerCount          int       `json:"pre_trigger_count"`
		Status                   State     `json:"status"`
		StopReason               string    `json:"stop_reason,omitempty"`
		FramesWritten            uint64    `json:"frames_written,omitempty"`
		ElapsedSeconds           float64   `json:"elapsed_seconds,omitempty"`
	}
	return json.Marshal(payload{
		ID:                       s.ID,
		StartTime:                s.StartTime,
		RequestedDurationSeconds: s.RequestedDuration.Seconds(),
		FramesSeenAtStart:        s.FramesSeenAtStart,
		PreTriggerCount:          s.PreTriggerCount,
		Status:                   s.Status,
		StopReason:               s.StopReason,
		FramesWritten:            s.FramesWritten,
		ElapsedSeconds:           s.Elapsed.Seconds(),
	})
}

// Result reports the outcome of a start or stop command. Command
// misuse (start while active, stop while idle) is an explicit no-op,
// not an error.
type Result struct {
	Changed bool    `json:"changed"`
	Status  string  `json:"status"`
	Session Session `json:"session,omitzero"`
}

// Options configures a Controller.
type Options struct {
	Recorder Recorder
	Buffer   *buffer.Rolling // optional pre-trigger source
	Bus      *events.Bus     // optional event sink
	Logger   *slog.Logger

	// OutputDir is where session output targets are created.
	OutputDir string

	// FramesSeen reports the producer's running frame count, captured
	// into the session at start. May be nil.
	FramesSeen func() uint64

	// Tick overrides the expiry check interval, for tests.
	Tick time.Duration
}

// Controller is the recording state machine. One command-handling
// worker interacts with it at a time in steady state, but all methods
// are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	state   State
	session *Session
	last    *Session
	stopCh  chan struct{} // closes to cancel the active watch goroutine
	total   uint64

	rec        Recorder
	buf        *buffer.Rolling
	bus        *events.Bus
	logger     *slog.Logger
	outputDir  string
	framesSeen func() uint64
	tick       time.Duration
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	return &Controller{
		state:      StateIdle,
		rec:        opts.Recorder,
		buf:        opts.Buffer,
		bus:        opts.Bus,
		logger:     logger,
		outputDir:  opts.OutputDir,
		framesSeen: opts.FramesSeen,
		tick:       tick,
	}
}

// Start begins a recording session. If a rolling buffer is configured
// its current snapshot is handed to the recorder as pre-trigger
// context. A start while already active is rejected as a no-op.
func (c *Controller) Start(ctx context.Context, duration time.Duration) Result {
	c.mu.Lock()
	if c.state != StateIdle {
		session := *c.session
		c.mu.Unlock()
		c.logger.Warn("Start rejected, already recording", "session_id", session.ID)
		return Result{Changed: false, Status: "already recording", Session: session}
	}

	session := &Session{
		ID:                uuid.NewString(),
		StartTime:         time.Now(),
		RequestedDuration: duration,
		Status:            StateActive,
	}
	if c.framesSeen != nil {
		session.FramesSeenAtStart = c.framesSeen()
	}

	opts := StartOptions{
		Output:   filepath.Join(c.outputDir, fmt.Sprintf("rec-%s", session.ID)),
		Duration: duration,
	}
	if c.buf != nil {
		opts.PreTrigger = c.buf.Snapshot()
		session.PreTriggerCount = len(opts.PreTrigger)
	}

	// Hold the lock across Begin so a racing Start observes Active
	// only once the recorder accepted the session.
	if err := c.rec.Begin(ctx, opts); err != nil {
		c.mu.Unlock()
		c.logger.Error("Recorder failed to start", "error", err)
		return Result{Changed: false, Status: "recorder error: " + err.Error()}
	}

	c.state = StateActive
	c.session = session
	c.stopCh = make(chan struct{})
	c.total++
	result := Result{Changed: true, Status: "recording", Session: *session}
	stopCh := c.stopCh
	c.mu.Unlock()

	c.logger.Info("Recording started",
		"session_id", session.ID,
		"duration", duration,
		"pre_trigger_frames", session.PreTriggerCount)

	if c.bus != nil {
		c.bus.Publish(events.RecordingStartedEvent{
			SessionID:       session.ID,
			Duration:        duration.Seconds(),
			PreTriggerCount: session.PreTriggerCount,
			Timestamp:       session.StartTime.Format(time.RFC3339),
		})
	}

	go c.watch(session.ID, session.StartTime, duration, stopCh)
	return result
}

// watch checks duration expiry on a periodic tick and reacts to the
// recorder terminating on its own. A blocking sleep would make a stop
// command unresponsive, hence the ticker.
func (c *Controller) watch(sessionID string, started time.Time, duration time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-c.rec.Done():
			c.finish(sessionID, ReasonRecorderExit)
			return
		case <-ticker.C:
			if duration > 0 && time.Since(started) >= duration {
				c.finish(sessionID, ReasonDurationExpired)
				return
			}
		}
	}
}

// Stop ends the active session. A stop while idle is a no-op.
func (c *Controller) Stop() Result {
	return c.finish("", ReasonStopCommand)
}

// Shutdown stops any active session during engine teardown.
func (c *Controller) Shutdown() {
	c.finish("", ReasonShutdown)
}

// finish transitions Active -> Stopping -> Idle. sessionID restricts
// the transition to a specific session ("" matches any) so a watcher
// for an already-ended session cannot stop its successor.
func (c *Controller) finish(sessionID, reason string) Result {
	c.mu.Lock()
	if c.state != StateActive || (sessionID != "" && c.session.ID != sessionID) {
		c.mu.Unlock()
		if reason == ReasonStopCommand {
			c.logger.Info("Stop requested while idle, no-op")
		}
		return Result{Changed: false, Status: "not recording"}
	}

	session := c.session
	session.Status = StateStopping
	c.state = StateStopping
	close(c.stopCh)
	c.mu.Unlock()

	// End can block on the recorder flushing to disk; the lock is not
	// held while it does.
	summary, err := c.rec.End()
	if err != nil {
		c.logger.Warn("Recorder end reported error", "error", err, "session_id", session.ID)
	}

	c.mu.Lock()
	session.Status = StateIdle
	session.StopReason = reason
	session.FramesWritten = summary.FramesWritten
	session.Elapsed = summary.Elapsed
	if session.Elapsed == 0 {
		session.Elapsed = time.Since(session.StartTime)
	}
	c.state = StateIdle
	c.session = nil
	c.last = session
	result := Result{Changed: true, Status: "stopped", Session: *session}
	c.mu.Unlock()

	c.logger.Info("Recording stopped",
		"session_id", session.ID,
		"reason", reason,
		"frames_written", session.FramesWritten,
		"elapsed", session.Elapsed)

	if c.bus != nil {
		c.bus.Publish(events.RecordingStoppedEvent{
			SessionID:     session.ID,
			Reason:        reason,
			FramesWritten: session.FramesWritten,
			Elapsed:       session.Elapsed.Seconds(),
			Timestamp:     time.Now().Format(time.RFC3339),
		})
	}
	return result
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the active session, false when idle.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// LastSession returns a copy of the most recently completed session,
// false if none has completed yet.
func (c *Controller) LastSession() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Session{}, false
	}
	return *c.last, true
}

// Total returns how many sessions have been started.
func (c *Controller) Total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
