package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framesync/framesync/internal/api/models"
	"github.com/framesync/framesync/internal/events"
	"github.com/framesync/framesync/internal/frame"
)

// registerTriggerRoutes registers the trigger endpoint. A raised
// trigger is latched and stamped onto the next ingested frame.
func (s *Server) registerTriggerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "raise-trigger",
		Method:      http.MethodPost,
		Path:        "/api/trigger",
		Summary:     "Raise Trigger",
		Description: "Latch a trigger so the next frame record carries its cause",
		Tags:        []string{"trigger"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, input *models.TriggerRequest) (*models.TriggerResponse, error) {
		kind := frame.TriggerRemote
		if input.Body.Source == "keyboard" {
			kind = frame.TriggerKeyboard
		}

		s.options.Trigger.Set(kind)
		now := time.Now()

		if s.options.EventBus != nil {
			s.options.EventBus.Publish(events.TriggerRaisedEvent{
				Kind:      kind.String(),
				Timestamp: now.Format(time.RFC3339Nano),
			})
		}

		return &models.TriggerResponse{
			Body: models.TriggerData{
				Kind:      kind.String(),
				Timestamp: now.Format(time.RFC3339Nano),
			},
		}, nil
	})
}
