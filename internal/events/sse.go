package events

import "github.com/kelindar/event"

// SubscribeToChannel adapts the callback-based bus to a channel, the
// shape Huma's SSE handlers select on. Delivery is best-effort: when
// the channel is full the event is dropped rather than blocking the
// dispatcher. Returns the unsubscribe function.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
