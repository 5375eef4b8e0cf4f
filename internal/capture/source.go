// Package capture supervises the external capture process that
// produces the timestamp-marker stream.
package capture

import (
	"context"
	"log/slog"

	"github.com/framesync/framesync/internal/marker"
	"github.com/framesync/framesync/internal/process"
)

// Source runs the capture binary and wires its stdout marker lines
// into the ingestor. When the process exits, end-of-stream is
// propagated so downstream workers drain and stop.
type Source struct {
	proc   *process.Process
	ing    *marker.Ingestor
	logger *slog.Logger
}

// markerTap routes subprocess output: stdout carries one marker per
// frame, stderr is capture binary chatter handled by logging only.
type markerTap struct {
	ing *marker.Ingestor
}

func (t markerTap) HandleLine(source, line string) {
	if source == "stdout" {
		t.ing.HandleLine(source, line)
	}
}

// NewSource creates a supervisor for the given capture command.
// procLogger receives the subprocess output lines at debug level.
func NewSource(command string, ing *marker.Ingestor, logger, procLogger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}

	proc := process.NewProcessWithOutput("capture", command, logger, markerTap{ing: ing})
	if procLogger != nil {
		// Marker lines are per-frame; anything above debug would flood.
		proc.SetLogParser(procLogger, func(line string) (string, string) {
			return "debug", line
		})
	}

	return &Source{proc: proc, ing: ing, logger: logger}
}

// Run blocks until the capture process exits or ctx is cancelled,
// then closes the marker source. Returns the process exit code.
func (s *Source) Run(ctx context.Context) int {
	go func() {
		<-ctx.Done()
		s.proc.Shutdown()
	}()

	code := s.proc.RunWithRestart()
	s.ing.CloseSource()
	return code
}

// Restart swaps in a new capture command without tearing the engine
// down.
func (s *Source) Restart(command string) {
	s.proc.RequestRestart(command)
}

// Shutdown stops the capture process.
func (s *Source) Shutdown() {
	s.proc.Shutdown()
}
