package bus

import (
	"encoding/json"
	"fmt"
)

// Subject prefixes for NATS topics.
const (
	SubjectFramesPrefix  = "framesync.frames"
	SubjectControlPrefix = "framesync.control"
)

// SubjectSamples returns the subject carrying per-frame samples.
func SubjectSamples(sourceID string) string {
	return fmt.Sprintf("%s.%s.samples", SubjectFramesPrefix, sourceID)
}

// SubjectMeta returns the subject carrying stream metadata.
func SubjectMeta(sourceID string) string {
	return fmt.Sprintf("%s.%s.meta", SubjectFramesPrefix, sourceID)
}

// SubjectState returns the subject carrying engine state changes.
func SubjectState(sourceID string) string {
	return fmt.Sprintf("%s.%s.state", SubjectFramesPrefix, sourceID)
}

// SubjectCommand returns the subject the engine listens on for remote
// commands.
func SubjectCommand(sourceID string) string {
	return fmt.Sprintf("%s.%s.command", SubjectControlPrefix, sourceID)
}

// Sample is one published frame timing sample. All three channels are
// float64 to match the bus's fixed sample layout; TriggerType carries
// the trigger enum value (0 none, 1 keyboard, 2 remote).
type Sample struct {
	FrameNumber float64 `json:"frame_number"`
	CaptureTime float64 `json:"capture_time"`
	TriggerType float64 `json:"trigger_type"`
}

// Marshal serializes the sample to JSON.
func (s Sample) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// MetaMessage announces the sample stream: name, unique id, channel
// count and the sensor's nominal rate.
type MetaMessage struct {
	Name        string  `json:"name"`
	UID         string  `json:"uid"`
	SourceID    string  `json:"source_id"`
	Channels    int     `json:"channels"`
	NominalRate float64 `json:"nominal_rate"`
	Timestamp   string  `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m MetaMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// StateMessage reports engine state transitions (recording started or
// stopped, source closed) to bus listeners.
type StateMessage struct {
	SourceID  string `json:"source_id"`
	State     string `json:"state"`
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Remote command actions.
const (
	ActionStartRecording = "start_recording"
	ActionStopRecording  = "stop_recording"
	ActionStatus         = "status"
	ActionGetStats       = "get_stats"
)

// CommandMessage is a remote command received on the control subject.
type CommandMessage struct {
	Action          string  `json:"action"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Timestamp       string  `json:"timestamp,omitempty"`
}

// Marshal serializes the message to JSON.
func (m CommandMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ResultMessage is the reply sent for a remote command.
type ResultMessage struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Detail any    `json:"detail,omitempty"`
}

// Marshal serializes the message to JSON.
func (m ResultMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalCommand deserializes a CommandMessage from JSON.
func UnmarshalCommand(data []byte) (CommandMessage, error) {
	var m CommandMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
