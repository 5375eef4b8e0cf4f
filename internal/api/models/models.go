// Package models defines the API request and response shapes.
package models

import (
	"github.com/framesync/framesync/internal/recorder"
	"github.com/framesync/framesync/internal/status"
	"github.com/framesync/framesync/internal/version"
)

// HealthData is the health check payload.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Message string `json:"message" example:"engine is healthy" doc:"Detail message"`
}

// HealthResponse wraps HealthData.
type HealthResponse struct {
	Body HealthData
}

// StatusResponse wraps the full engine status snapshot.
type StatusResponse struct {
	Body status.Snapshot
}

// StatsData is the compact counters payload for get_stats consumers.
type StatsData struct {
	FramesIngested   uint64  `json:"frames_ingested" doc:"Frames accepted from the marker source"`
	FramesMalformed  uint64  `json:"frames_malformed" doc:"Marker lines discarded as malformed"`
	FramesDropped    uint64  `json:"frames_dropped" doc:"Frames missing from the marker stream"`
	QueueDepth       int     `json:"queue_depth" doc:"Deepest consumer backlog"`
	QueueDrops       uint64  `json:"queue_drops" doc:"Records dropped across consumers"`
	BufferFrames     int     `json:"buffer_frames" doc:"Frames in the rolling buffer"`
	BufferUtil       float64 `json:"buffer_utilization" doc:"Rolling buffer fill ratio"`
	SamplesPublished uint64  `json:"samples_published" doc:"Samples sent to the real-time bus"`
	PublishRateHz    float64 `json:"publish_rate_hz" doc:"Effective publish rate"`
	RecordingState   string  `json:"recording_state" example:"idle" doc:"Recording controller state"`
	RecordingsTotal  uint64  `json:"recordings_total" doc:"Recording sessions started"`
}

// StatsResponse wraps StatsData.
type StatsResponse struct {
	Body StatsData
}

// RecordingStartRequest is the start_recording command body.
type RecordingStartRequest struct {
	Body struct {
		DurationSeconds float64 `json:"duration_seconds,omitempty" minimum:"0" doc:"Requested duration, 0 or absent for open-ended"`
	}
}

// RecordingData reports a controller command outcome.
type RecordingData struct {
	Changed bool              `json:"changed" doc:"Whether the command changed controller state"`
	Status  string            `json:"status" example:"recording" doc:"Outcome: recording, stopped, already recording, not recording"`
	Session *recorder.Session `json:"session,omitempty" doc:"Affected session, when one exists"`
}

// RecordingResponse wraps RecordingData.
type RecordingResponse struct {
	Body RecordingData
}

// RecordingStateData reports the controller state on demand.
type RecordingStateData struct {
	State       string            `json:"state" example:"idle" doc:"Controller state"`
	Session     *recorder.Session `json:"session,omitempty" doc:"Active session"`
	LastSession *recorder.Session `json:"last_session,omitempty" doc:"Most recently completed session"`
}

// RecordingStateResponse wraps RecordingStateData.
type RecordingStateResponse struct {
	Body RecordingStateData
}

// TriggerRequest raises a trigger for the next frame.
type TriggerRequest struct {
	Body struct {
		Source string `json:"source" enum:"keyboard,remote" doc:"Trigger cause to stamp onto the next frame"`
	}
}

// TriggerData confirms a raised trigger.
type TriggerData struct {
	Kind      string `json:"kind" example:"remote" doc:"Latched trigger cause"`
	Timestamp string `json:"timestamp" doc:"Latch timestamp"`
}

// TriggerResponse wraps TriggerData.
type TriggerResponse struct {
	Body TriggerData
}

// LogsData is the historical log payload.
type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int        `json:"count" doc:"Number of entries returned"`
}

// LogEntry is one buffered log line.
type LogEntry struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"marker" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// LogsResponse wraps LogsData.
type LogsResponse struct {
	Body LogsData
}

// VersionResponse wraps build information.
type VersionResponse struct {
	Body version.Info
}
