package events

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan FrameGapEvent, 1)

	unsub := bus.Subscribe(func(e FrameGapEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(FrameGapEvent{From: 10, To: 14, Missed: 3})

	select {
	case got := <-received:
		if got.Missed != 3 || got.From != 10 {
			t.Errorf("got %+v, want gap 10->14 missing 3", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := New()
	first := make(chan RecordingStartedEvent, 1)
	second := make(chan RecordingStartedEvent, 1)

	defer bus.Subscribe(func(e RecordingStartedEvent) { first <- e })()
	defer bus.Subscribe(func(e RecordingStartedEvent) { second <- e })()

	bus.Publish(RecordingStartedEvent{SessionID: "s1"})

	for i, ch := range []chan RecordingStartedEvent{first, second} {
		select {
		case got := <-ch:
			if got.SessionID != "s1" {
				t.Errorf("subscriber %d got %+v", i, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d missed the event", i)
		}
	}
}

func TestBusTypeIsolation(t *testing.T) {
	bus := New()
	triggers := make(chan TriggerRaisedEvent, 1)

	defer bus.Subscribe(func(e TriggerRaisedEvent) { triggers <- e })()

	// A different event type must not reach the trigger subscriber.
	bus.Publish(RecordingStoppedEvent{SessionID: "s1"})

	select {
	case got := <-triggers:
		t.Errorf("trigger subscriber received %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New()
	received := make(chan SourceStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e SourceStateChangedEvent) { received <- e })
	unsub()

	bus.Publish(SourceStateChangedEvent{State: "closed"})

	select {
	case got := <-received:
		t.Errorf("unsubscribed handler received %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 2)

	unsub := SubscribeToChannel[LogEntryEvent](bus, ch)
	defer unsub()

	bus.Publish(LogEntryEvent{Seq: 1, Message: "hello"})

	select {
	case got := <-ch:
		entry, ok := got.(LogEntryEvent)
		if !ok || entry.Message != "hello" {
			t.Errorf("got %#v, want LogEntryEvent hello", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not bridged to channel")
	}
}
