package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framesync/framesync/internal/process"
)

// ErrSessionActive is returned by Begin while a session is running.
var ErrSessionActive = errors.New("recorder session already active")

// ProcessRecorder drives an external recorder binary. The command
// template's "{output}" placeholder is replaced with the session's
// output target; the pre-trigger snapshot is written next to the
// output as a JSON seed file the recorder can consume as lead-in.
type ProcessRecorder struct {
	template   string
	logger     *slog.Logger
	procLogger *slog.Logger

	mu     sync.Mutex
	proc   *process.Process
	done   chan struct{}
	begun  time.Time
	frames atomic.Uint64
}

// NewProcessRecorder creates a recorder running commandTemplate per
// session. procLogger receives the subprocess output lines.
func NewProcessRecorder(commandTemplate string, logger, procLogger *slog.Logger) *ProcessRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessRecorder{
		template:   commandTemplate,
		logger:     logger,
		procLogger: procLogger,
	}
}

// HandleLine watches recorder output for its frame counter. The
// recorder reports progress as "frames=N" tokens on its status lines.
func (r *ProcessRecorder) HandleLine(_, line string) {
	idx := strings.Index(line, "frames=")
	if idx < 0 {
		return
	}
	field := line[idx+len("frames="):]
	if end := strings.IndexAny(field, " \t"); end >= 0 {
		field = field[:end]
	}
	if n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64); err == nil {
		r.frames.Store(n)
	}
}

// Begin writes the pre-trigger seed, starts the recorder process and
// returns once it is running.
func (r *ProcessRecorder) Begin(_ context.Context, opts StartOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc != nil {
		return ErrSessionActive
	}

	if len(opts.PreTrigger) > 0 {
		if err := writeSeed(opts.Output+".pretrigger.json", opts.PreTrigger); err != nil {
			r.logger.Warn("Failed to write pre-trigger seed, recording without lead-in", "error", err)
		}
	}

	command := strings.ReplaceAll(r.template, "{output}", opts.Output)
	proc := process.NewProcessWithOutput("recorder", command, r.logger, r)
	if r.procLogger != nil {
		proc.SetLogParser(r.procLogger, nil)
	}

	r.frames.Store(0)
	r.begun = time.Now()
	r.proc = proc
	done := make(chan struct{})
	r.done = done

	go func() {
		code := proc.Run()
		r.logger.Info("Recorder process exited", "exit_code", code)
		close(done)
	}()

	return nil
}

// End stops the recorder process and reports final counters.
func (r *ProcessRecorder) End() (Summary, error) {
	r.mu.Lock()
	proc := r.proc
	done := r.done
	begun := r.begun
	r.proc = nil
	r.mu.Unlock()

	if proc == nil {
		return Summary{}, nil
	}

	proc.Shutdown()
	<-done

	return Summary{
		FramesWritten: r.frames.Load(),
		Elapsed:       time.Since(begun),
	}, nil
}

// Done reports recorder process termination. Returns a never-closing
// channel while no session is active.
func (r *ProcessRecorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return make(chan struct{})
	}
	return r.done
}

// writeSeed persists the pre-trigger snapshot for the recorder.
func writeSeed(path string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
