package logging

import (
	"fmt"
	"testing"
	"time"
)

func entry(msg string) LogEntry {
	return LogEntry{Timestamp: time.Now(), Level: "info", Module: "test", Message: msg}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(4)
	if rb.Count() != 0 {
		t.Errorf("Count = %d, want 0", rb.Count())
	}
	if got := rb.ReadAll(); got != nil {
		t.Errorf("ReadAll = %v, want nil", got)
	}
}

func TestRingBufferPartialFill(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write(entry("a"))
	rb.Write(entry("b"))

	got := rb.ReadAll()
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Errorf("ReadAll = %v, want [a b]", got)
	}
}

func TestRingBufferWrapsOldestFirst(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		rb.Write(entry(fmt.Sprintf("m%d", i)))
	}

	got := rb.ReadAll()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"m3", "m4", "m5"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("entry %d = %q, want %q", i, got[i].Message, w)
		}
	}
	if rb.Count() != 3 {
		t.Errorf("Count = %d, want 3", rb.Count())
	}
}
