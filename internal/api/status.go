package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framesync/framesync/internal/api/models"
	"github.com/framesync/framesync/internal/version"
)

// registerStatusRoutes registers the status, stats and version endpoints.
func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Engine Status",
		Description: "Full point-in-time snapshot of ingest, queue, buffer, publisher and recording state",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{
			Body: s.options.Aggregator.Snapshot(),
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Engine Counters",
		Description: "Compact counter summary, the HTTP equivalent of the bus get_stats command",
		Tags:        []string{"status"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatsResponse, error) {
		snap := s.options.Aggregator.Snapshot()
		return &models.StatsResponse{
			Body: models.StatsData{
				FramesIngested:   snap.Ingest.Ingested,
				FramesMalformed:  snap.Ingest.Malformed,
				FramesDropped:    snap.Ingest.Dropped,
				QueueDepth:       snap.Queue.Depth,
				QueueDrops:       snap.Queue.Drops,
				BufferFrames:     snap.Buffer.Frames,
				BufferUtil:       snap.Buffer.Utilization,
				SamplesPublished: snap.Publisher.Published,
				PublishRateHz:    snap.Publisher.RateHz,
				RecordingState:   snap.Recording.State,
				RecordingsTotal:  snap.Recording.Total,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Build and version information",
		Tags:        []string{"status"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})
}
