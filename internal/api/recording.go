package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framesync/framesync/internal/api/models"
	"github.com/framesync/framesync/internal/recorder"
)

// registerRecordingRoutes registers recording control endpoints. Start
// and stop mirror the bus command channel: misuse is reported in the
// body, never as an HTTP error.
func (s *Server) registerRecordingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-recording",
		Method:      http.MethodPost,
		Path:        "/api/recording",
		Summary:     "Start Recording",
		Description: "Start a recording session, seeded with the rolling buffer's pre-trigger frames",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *models.RecordingStartRequest) (*models.RecordingResponse, error) {
		duration := time.Duration(input.Body.DurationSeconds * float64(time.Second))
		result := s.options.Controller.Start(ctx, duration)
		return &models.RecordingResponse{Body: resultData(result)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-recording",
		Method:      http.MethodDelete,
		Path:        "/api/recording",
		Summary:     "Stop Recording",
		Description: "Stop the active recording session; a no-op when idle",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.RecordingResponse, error) {
		result := s.options.Controller.Stop()
		return &models.RecordingResponse{Body: resultData(result)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-recording",
		Method:      http.MethodGet,
		Path:        "/api/recording",
		Summary:     "Recording State",
		Description: "Current recording controller state and sessions",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.RecordingStateResponse, error) {
		data := models.RecordingStateData{
			State: string(s.options.Controller.State()),
		}
		if session, ok := s.options.Controller.Session(); ok {
			data.Session = &session
		}
		if last, ok := s.options.Controller.LastSession(); ok {
			data.LastSession = &last
		}
		return &models.RecordingStateResponse{Body: data}, nil
	})
}

func resultData(result recorder.Result) models.RecordingData {
	data := models.RecordingData{
		Changed: result.Changed,
		Status:  result.Status,
	}
	if result.Session.ID != "" {
		session := result.Session
		data.Session = &session
	}
	return data
}
