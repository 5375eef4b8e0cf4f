package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(FrameGapEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case FrameGapEvent:
		event.Publish(b.dispatcher, e)
	case TriggerRaisedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStartedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStoppedEvent:
		event.Publish(b.dispatcher, e)
	case SourceStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RecordingStartedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	// The kelindar/event library dispatches by concrete type, so map
	// each known handler signature onto the generic Subscribe.
	switch h := handler.(type) {
	case func(FrameGapEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TriggerRaisedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SourceStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
