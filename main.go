package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/framesync/framesync/cmd"
	"github.com/framesync/framesync/internal/api"
	"github.com/framesync/framesync/internal/buffer"
	"github.com/framesync/framesync/internal/bus"
	"github.com/framesync/framesync/internal/capture"
	"github.com/framesync/framesync/internal/config"
	"github.com/framesync/framesync/internal/events"
	"github.com/framesync/framesync/internal/logging"
	"github.com/framesync/framesync/internal/marker"
	"github.com/framesync/framesync/internal/metrics"
	"github.com/framesync/framesync/internal/publisher"
	"github.com/framesync/framesync/internal/queue"
	"github.com/framesync/framesync/internal/recorder"
	"github.com/framesync/framesync/internal/status"
	"github.com/framesync/framesync/internal/systemd"
	"github.com/framesync/framesync/internal/trigger"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Marker source settings
	SourceID       string `help:"Source identifier used in bus subjects" default:"default" toml:"source.id" env:"SOURCE_ID"`
	CaptureCommand string `help:"Capture command emitting marker lines; empty reads stdin" default:"" toml:"source.command" env:"SOURCE_COMMAND"`

	// Stream settings
	StreamName  string  `help:"Published stream name" default:"FrameMarkers" toml:"stream.name" env:"STREAM_NAME"`
	NominalRate float64 `help:"Nominal frame rate in Hz, announced in stream metadata" default:"100" toml:"stream.nominal_rate" env:"STREAM_NOMINAL_RATE"`

	// Buffer settings
	BufferMaxFrames     int     `help:"Rolling buffer hard cap in frames" default:"1500" toml:"buffer.max_frames" env:"BUFFER_MAX_FRAMES"`
	BufferMaxAgeSeconds float64 `help:"Rolling buffer age bound in seconds" default:"15" toml:"buffer.max_age_seconds" env:"BUFFER_MAX_AGE_SECONDS"`

	// Queue settings
	QueueCapacity int `help:"Fan-out queue capacity per consumer" default:"10000" toml:"queue.capacity" env:"QUEUE_CAPACITY"`

	// Trigger settings
	TriggerMode string `help:"Trigger policy (edge, level)" default:"edge" toml:"trigger.mode" env:"TRIGGER_MODE"`

	// Recording settings
	RecorderCommand string `help:"Recorder command template, {output} is replaced per session" default:"" toml:"recording.command" env:"RECORDING_COMMAND"`
	OutputDir       string `help:"Directory for recording outputs" default:"recordings" toml:"recording.output_dir" env:"RECORDING_OUTPUT_DIR"`

	// Bus settings
	BusURL string `help:"NATS server URL; empty disables the bus" default:"" toml:"bus.url" env:"BUS_URL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingMarker    string `help:"Marker ingestor logging level" default:"info" toml:"logging.marker" env:"LOGGING_MARKER"`
	LoggingCapture   string `help:"Capture source logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingRecorder  string `help:"Recorder logging level" default:"info" toml:"logging.recorder" env:"LOGGING_RECORDER"`
	LoggingPublisher string `help:"Publisher logging level" default:"info" toml:"logging.publisher" env:"LOGGING_PUBLISHER"`
	LoggingBus       string `help:"Bus client logging level" default:"info" toml:"logging.bus" env:"LOGGING_BUS"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// metricsInterval paces the Prometheus gauge refresh and the periodic
// state publication to the bus.
const metricsInterval = 5 * time.Second

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"marker":    opts.LoggingMarker,
				"capture":   opts.LoggingCapture,
				"recorder":  opts.LoggingRecorder,
				"publisher": opts.LoggingPublisher,
				"bus":       opts.LoggingBus,
				"api":       opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		// Event bus for in-process fan-out (SSE, LEDs of the future)
		eventBus := events.New()

		// Bridge ring-buffer log entries onto the event bus for SSE
		var logSeq atomic.Uint64
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        logSeq.Add(1),
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Frame pipeline: queue, rolling buffer, trigger latch, ingestor
		frameQueue := queue.NewFanout(opts.QueueCapacity)
		bufferSub := frameQueue.Subscribe("buffer")
		publisherSub := frameQueue.Subscribe("publisher")

		rolling := buffer.NewRolling(
			opts.BufferMaxFrames,
			time.Duration(opts.BufferMaxAgeSeconds*float64(time.Second)))
		inserter := buffer.NewInserter(bufferSub, rolling, logging.GetLogger("buffer"))

		latch := trigger.NewLatch(trigger.ParseMode(opts.TriggerMode))
		ingestor := marker.NewIngestor(frameQueue, latch, eventBus, logging.GetLogger("marker"))

		// Real-time bus; nil URL runs the engine standalone
		var busClient *bus.Client
		if opts.BusURL != "" {
			busClient = bus.NewClient(opts.BusURL, opts.SourceID, logging.GetLogger("bus"))
		}

		var sampleWriter publisher.SampleWriter = discardWriter{}
		if busClient != nil {
			sampleWriter = busClient
		}
		pub := publisher.New(publisherSub, sampleWriter, logging.GetLogger("publisher"))

		// Recording controller over a subprocess-backed recorder
		recorderLogger := logging.GetLogger("recorder")
		rec := recorder.NewProcessRecorder(opts.RecorderCommand, recorderLogger, recorderLogger)
		controller := recorder.NewController(recorder.Options{
			Recorder:   rec,
			Buffer:     rolling,
			Bus:        eventBus,
			Logger:     recorderLogger,
			OutputDir:  opts.OutputDir,
			FramesSeen: func() uint64 { return ingestor.Stats().Ingested },
		})

		aggregator := status.NewAggregator(status.Options{
			Ingestor:   ingestor,
			Queue:      frameQueue,
			Buffer:     rolling,
			Publisher:  pub,
			Controller: controller,
			Connected: func() bool {
				return busClient != nil && busClient.IsConnected()
			},
		})

		if busClient != nil {
			busClient.OnCommand(commandHandler(controller, aggregator))
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Controller:        controller,
			Aggregator:        aggregator,
			Trigger:           latch,
			EventBus:          eventBus,
			PrometheusHandler: promhttp.Handler(),
		})

		// Watch the config file for runtime log-level changes
		watcher := config.NewWatcher(opts.Config, func(path string) (logging.Config, error) {
			return config.LoadLoggingConfig(path), nil
		}, 500*time.Millisecond, logger)
		watcher.OnReload(func(cfg logging.Config) {
			for module, level := range cfg.Modules {
				logging.SetModuleLevel(module, level)
			}
		})

		runCtx, cancelRun := context.WithCancel(context.Background())
		var workers sync.WaitGroup

		hooks.OnStart(func() {
			if busClient != nil {
				if connErr := busClient.Connect(); connErr != nil {
					logger.Warn("Bus unavailable, continuing without it", "error", connErr)
				} else {
					busClient.PublishMeta(bus.MetaMessage{
						Name:        opts.StreamName,
						UID:         uuid.NewString(),
						SourceID:    opts.SourceID,
						Channels:    3,
						NominalRate: opts.NominalRate,
						Timestamp:   time.Now().Format(time.RFC3339),
					})
				}
			}

			workers.Add(1)
			go func() {
				defer workers.Done()
				if runErr := inserter.Run(runCtx); runErr != nil {
					logger.Error("Buffer inserter stopped", "error", runErr)
				}
			}()

			workers.Add(1)
			go func() {
				defer workers.Done()
				if runErr := pub.Run(runCtx); runErr != nil {
					logger.Error("Publisher stopped", "error", runErr)
				}
			}()

			// Periodic metrics refresh and bus state publication
			workers.Add(1)
			go func() {
				defer workers.Done()
				ticker := time.NewTicker(metricsInterval)
				defer ticker.Stop()
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						snap := aggregator.Snapshot()
						metrics.Apply(snap)
						if busClient != nil {
							busClient.PublishState(bus.StateMessage{
								SourceID:  opts.SourceID,
								State:     snap.Recording.State,
								SessionID: snap.Ingest.SessionID,
								Timestamp: snap.Timestamp,
							})
						}
					}
				}
			}()

			// Marker source: supervised subprocess, or stdin when none
			// is configured.
			workers.Add(1)
			go func() {
				defer workers.Done()
				if opts.CaptureCommand != "" {
					source := capture.NewSource(opts.CaptureCommand, ingestor,
						logging.GetLogger("capture"), logging.GetLogger("capture"))
					code := source.Run(runCtx)
					logger.Info("Capture source exited", "exit_code", code)
					if runCtx.Err() == nil {
						// Source died on its own: drain and shut the
						// engine down through the normal stop path.
						if p, findErr := os.FindProcess(os.Getpid()); findErr == nil {
							_ = p.Signal(syscall.SIGTERM)
						}
					}
				} else {
					logger.Info("No capture command configured, reading markers from stdin")
					if runErr := ingestor.Run(runCtx, os.Stdin); runErr != nil &&
						!errors.Is(runErr, context.Canceled) {
						logger.Warn("Marker ingestion stopped", "error", runErr)
					}
				}
			}()

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Debug("Config watcher not started", "error", watchErr)
			}

			systemd.NotifyReady()
			systemd.NotifyStatus("serving on " + opts.Port)
			if interval, ok := systemd.WatchdogInterval(); ok {
				workers.Add(1)
				go func() {
					defer workers.Done()
					ticker := time.NewTicker(interval)
					defer ticker.Stop()
					for {
						select {
						case <-runCtx.Done():
							return
						case <-ticker.C:
							systemd.NotifyWatchdog()
						}
					}
				}()
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			systemd.NotifyStopping()
			logger.Info("Shutting down engine")

			// Source first: its exit closes the queue, letting the
			// consumers drain before they are cancelled.
			cancelRun()
			controller.Shutdown()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Debug("Config watcher stop", "error", stopErr)
			}
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			workers.Wait()

			if busClient != nil {
				busClient.Close()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateValidateCmd())

	cli.Run()
}

// discardWriter satisfies the publisher when no bus is configured.
type discardWriter struct{}

func (discardWriter) PublishSample(bus.Sample) error { return nil }

// commandHandler maps remote bus commands onto the same controller and
// aggregator calls the HTTP API uses.
func commandHandler(controller *recorder.Controller, aggregator *status.Aggregator) bus.CommandFunc {
	return func(msg bus.CommandMessage) bus.ResultMessage {
		switch msg.Action {
		case bus.ActionStartRecording:
			duration := time.Duration(msg.DurationSeconds * float64(time.Second))
			result := controller.Start(context.Background(), duration)
			return bus.ResultMessage{OK: result.Changed, Status: result.Status, Detail: result.Session}
		case bus.ActionStopRecording:
			result := controller.Stop()
			return bus.ResultMessage{OK: result.Changed, Status: result.Status, Detail: result.Session}
		case bus.ActionStatus:
			return bus.ResultMessage{OK: true, Status: "ok", Detail: aggregator.Snapshot()}
		case bus.ActionGetStats:
			snap := aggregator.Snapshot()
			return bus.ResultMessage{OK: true, Status: "ok", Detail: map[string]any{
				"frames_ingested":   snap.Ingest.Ingested,
				"frames_dropped":    snap.Ingest.Dropped,
				"queue_depth":       snap.Queue.Depth,
				"buffer_frames":     snap.Buffer.Frames,
				"samples_published": snap.Publisher.Published,
				"recording_state":   snap.Recording.State,
			}}
		default:
			return bus.ResultMessage{OK: false, Status: "unknown action: " + msg.Action}
		}
	}
}
