// Package logging provides the engine's module-scoped structured
// logging on top of log/slog.
//
// Each subsystem obtains its logger with GetLogger("module"); levels
// are adjustable per module at runtime through slog.LevelVar, so a
// noisy ingest path can be turned down without touching the recording
// controller's output. Records fan out to stdout (text or JSON), the
// systemd journal when one is listening, and an in-memory ring buffer
// that backs the log tail endpoint and SSE log streaming.
//
// Typical wiring:
//
//	logging.Initialize(logging.Config{Level: "info", Format: "text"})
//	logger := logging.GetLogger("marker")
//	logger.Info("Marker source opened", "path", path)
//
// Module names in use: main, marker, queue, buffer, trigger,
// publisher, recorder, capture, bus, api, config, events.
package logging
