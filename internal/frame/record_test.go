package frame

import (
	"testing"
	"time"
)

func TestTriggerKindString(t *testing.T) {
	tests := []struct {
		kind TriggerKind
		want string
	}{
		{TriggerNone, "none"},
		{TriggerKeyboard, "keyboard"},
		{TriggerRemote, "remote"},
		{TriggerKind(99), "none"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("TriggerKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestRecordTime(t *testing.T) {
	rec := Record{Number: 1, CaptureTime: 1714071543.5}

	got := rec.Time()
	if got.Unix() != 1714071543 {
		t.Errorf("Time().Unix() = %d, want 1714071543", got.Unix())
	}
	if ns := got.Nanosecond(); ns < 499_000_000 || ns > 501_000_000 {
		t.Errorf("Nanosecond = %d, want ~500ms", ns)
	}
}

func TestRecordAge(t *testing.T) {
	now := time.Now()
	rec := Record{CaptureTime: float64(now.Add(-5*time.Second).UnixNano()) / float64(time.Second)}

	age := rec.Age(now)
	if age < 4900*time.Millisecond || age > 5100*time.Millisecond {
		t.Errorf("Age = %v, want ~5s", age)
	}
}
