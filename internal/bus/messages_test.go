package bus

import (
	"encoding/json"
	"testing"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"samples", SubjectSamples("cam0"), "framesync.frames.cam0.samples"},
		{"meta", SubjectMeta("cam0"), "framesync.frames.cam0.meta"},
		{"state", SubjectState("cam0"), "framesync.frames.cam0.state"},
		{"command", SubjectCommand("cam0"), "framesync.control.cam0.command"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s subject = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestSampleMarshal(t *testing.T) {
	s := Sample{FrameNumber: 1042, CaptureTime: 1714071543.02, TriggerType: 2}

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["frame_number"] != 1042 || decoded["trigger_type"] != 2 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestCommandMessageDecode(t *testing.T) {
	raw := `{"action":"start_recording","duration_seconds":12.5}`

	var msg CommandMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Action != ActionStartRecording {
		t.Errorf("Action = %q, want %q", msg.Action, ActionStartRecording)
	}
	if msg.DurationSeconds != 12.5 {
		t.Errorf("DurationSeconds = %v, want 12.5", msg.DurationSeconds)
	}
}
