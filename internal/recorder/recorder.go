// Package recorder controls the external recording activity: the
// Idle/Active state machine, duration handling and the handoff of
// pre-trigger context to the recorder process.
package recorder

import (
	"context"
	"time"

	"github.com/framesync/framesync/internal/frame"
)

// StartOptions carries everything the external recorder needs to
// begin a session.
type StartOptions struct {
	// Output is the target the recorder writes to.
	Output string

	// PreTrigger is the rolling buffer snapshot handed to the recorder
	// as lead-in context. May be empty.
	PreTrigger []frame.Record

	// Duration is the requested recording length, 0 for open-ended.
	Duration time.Duration
}

// Summary is what the recorder reports when a session ends.
type Summary struct {
	FramesWritten uint64
	Elapsed       time.Duration
}

// Recorder is the boundary to the external recording collaborator.
// Begin hands over the live stream, End tears the session down and
// collects final counters. Done is closed if the recorder terminates
// on its own (error or normal exit) before End is called.
type Recorder interface {
	Begin(ctx context.Context, opts StartOptions) error
	End() (Summary, error)
	Done() <-chan struct{}
}
