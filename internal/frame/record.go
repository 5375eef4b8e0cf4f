// Package frame defines the immutable frame descriptor shared by the
// ingestion, buffering and publishing paths.
package frame

import (
	"math"
	"time"
)

// TriggerKind identifies the cause that tagged a frame.
type TriggerKind uint8

// Trigger causes. The numeric values are part of the published sample
// format and must not change.
const (
	TriggerNone     TriggerKind = 0
	TriggerKeyboard TriggerKind = 1
	TriggerRemote   TriggerKind = 2
)

// String returns a human-readable trigger name.
func (k TriggerKind) String() string {
	switch k {
	case TriggerKeyboard:
		return "keyboard"
	case TriggerRemote:
		return "remote"
	default:
		return "none"
	}
}

// Record describes one captured frame. Records are immutable once
// constructed; the ingestor is the only producer.
type Record struct {
	// Number is the monotonic frame counter reported by the capture
	// process. Unique within an ingest session.
	Number uint64 `json:"frame_number"`

	// CaptureTime is the capture timestamp in fractional unix seconds.
	CaptureTime float64 `json:"capture_time"`

	// Trigger is the cause stamped onto this frame, TriggerNone for
	// ordinary frames.
	Trigger TriggerKind `json:"trigger_type"`
}

// Time converts the capture timestamp to a time.Time.
func (r Record) Time() time.Time {
	sec, frac := math.Modf(r.CaptureTime)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Age returns how long ago the frame was captured relative to now.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.Time())
}
