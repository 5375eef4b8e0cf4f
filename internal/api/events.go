package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/framesync/framesync/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of frame gaps, triggers, recording transitions and source state changes",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"frame-gap":            events.FrameGapEvent{},
		"trigger-raised":       events.TriggerRaisedEvent{},
		"recording-started":    events.RecordingStartedEvent{},
		"recording-stopped":    events.RecordingStoppedEvent{},
		"source-state-changed": events.SourceStateChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Per-connection channel; slow clients drop rather than block
		// the bus.
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.FrameGapEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.TriggerRaisedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.RecordingStartedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.RecordingStoppedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.SourceStateChangedEvent](s.options.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
