package events

// Event type constants for kelindar/event.
const (
	TypeFrameGap uint32 = iota + 1
	TypeTriggerRaised
	TypeRecordingStarted
	TypeRecordingStopped
	TypeSourceStateChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// FrameGapEvent is published when the marker stream skips frame
// numbers, indicating dropped frames at the sensor.
type FrameGapEvent struct {
	SessionID string `json:"session_id" doc:"Ingest session identifier"`
	From      uint64 `json:"from" example:"1041" doc:"Last frame seen before the gap"`
	To        uint64 `json:"to" example:"1045" doc:"First frame seen after the gap"`
	Missed    uint64 `json:"missed" example:"3" doc:"Number of frames missing"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Detection timestamp"`
}

// Type returns the event type identifier for FrameGapEvent.
func (e FrameGapEvent) Type() uint32 { return TypeFrameGap }

// TriggerRaisedEvent is published when a keyboard or remote trigger is
// latched for the next frame.
type TriggerRaisedEvent struct {
	Kind      string `json:"kind" example:"remote" doc:"Trigger cause: keyboard or remote"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Latch timestamp"`
}

// Type returns the event type identifier for TriggerRaisedEvent.
func (e TriggerRaisedEvent) Type() uint32 { return TypeTriggerRaised }

// RecordingStartedEvent is published when the recording controller
// enters the Active state.
type RecordingStartedEvent struct {
	SessionID       string  `json:"session_id" doc:"Recording session identifier"`
	Duration        float64 `json:"duration_seconds,omitempty" doc:"Requested duration, 0 when open-ended"`
	PreTriggerCount int     `json:"pre_trigger_count" doc:"Buffered frames handed to the recorder as lead-in"`
	Timestamp       string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Start timestamp"`
}

// Type returns the event type identifier for RecordingStartedEvent.
func (e RecordingStartedEvent) Type() uint32 { return TypeRecordingStarted }

// RecordingStoppedEvent is published when a recording session returns
// to Idle.
type RecordingStoppedEvent struct {
	SessionID     string  `json:"session_id" doc:"Recording session identifier"`
	Reason        string  `json:"reason" example:"duration_expired" doc:"stop_command, duration_expired or recorder_exit"`
	FramesWritten uint64  `json:"frames_written" doc:"Frames the recorder reported writing"`
	Elapsed       float64 `json:"elapsed_seconds" doc:"Session length in seconds"`
	Timestamp     string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Stop timestamp"`
}

// Type returns the event type identifier for RecordingStoppedEvent.
func (e RecordingStoppedEvent) Type() uint32 { return TypeRecordingStopped }

// SourceStateChangedEvent reports marker source lifecycle changes.
type SourceStateChangedEvent struct {
	SessionID string `json:"session_id" doc:"Ingest session identifier"`
	State     string `json:"state" example:"closed" doc:"Source state: running, closed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SourceStateChangedEvent.
func (e SourceStateChangedEvent) Type() uint32 { return TypeSourceStateChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"marker" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
