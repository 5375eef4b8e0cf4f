package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framesync/framesync/internal/logging"
)

// HTTPLoggingMiddleware logs each request with method, path, status and
// duration. Client errors log at warn, server errors at error.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("api")

	next(ctx)

	duration := time.Since(start)
	statusCode := ctx.Status()

	attrs := []any{
		"method", ctx.Method(),
		"path", ctx.URL().Path,
		"status", statusCode,
		"duration_ms", duration.Milliseconds(),
		"remote_addr", ctx.RemoteAddr(),
	}

	switch {
	case statusCode >= 500:
		logger.Error("HTTP request", attrs...)
	case statusCode >= 400:
		logger.Warn("HTTP request", attrs...)
	default:
		logger.Debug("HTTP request", attrs...)
	}
}
