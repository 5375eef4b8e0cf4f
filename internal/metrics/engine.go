// Package metrics exposes Prometheus metrics for the frame engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/framesync/framesync/internal/status"
)

var (
	framesIngested = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "ingest",
		Name:      "frames_total",
		Help:      "Total frames ingested from the marker source",
	})

	framesMalformed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "ingest",
		Name:      "malformed_total",
		Help:      "Marker lines discarded as malformed",
	})

	framesOutOfOrder = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "ingest",
		Name:      "out_of_order_total",
		Help:      "Marker lines discarded as out of order",
	})

	framesDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "ingest",
		Name:      "dropped_total",
		Help:      "Frames missing from the marker stream (gaps)",
	})

	ingestSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "ingest",
		Name:      "sessions_total",
		Help:      "Ingest sessions seen, including sensor restarts",
	})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Records queued per consumer",
	}, []string{"consumer"})

	queueDrops = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "queue",
		Name:      "drops_total",
		Help:      "Records dropped per consumer due to backlog",
	}, []string{"consumer"})

	bufferFrames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "buffer",
		Name:      "frames",
		Help:      "Frames currently in the rolling buffer",
	})

	bufferUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "buffer",
		Name:      "utilization",
		Help:      "Rolling buffer fill ratio (0-1)",
	})

	bufferOldestAge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "buffer",
		Name:      "oldest_age_seconds",
		Help:      "Age of the oldest buffered frame",
	})

	samplesPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "publisher",
		Name:      "samples_total",
		Help:      "Samples published to the real-time bus",
	})

	samplesFailed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "publisher",
		Name:      "failures_total",
		Help:      "Sample publishes that failed and were skipped",
	})

	publishRate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "publisher",
		Name:      "rate_hz",
		Help:      "Effective publish rate",
	})

	recordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "recording",
		Name:      "active",
		Help:      "1 while a recording session is active",
	})

	recordingsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "recording",
		Name:      "sessions_total",
		Help:      "Recording sessions started",
	})

	busConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "framesync",
		Subsystem: "bus",
		Name:      "connected",
		Help:      "1 while the real-time bus connection is up",
	})
)

// Apply publishes a status snapshot to the Prometheus registry. The
// engine's counters are plain atomics; a periodic snapshot keeps the
// hot paths free of metrics work.
func Apply(snap status.Snapshot) {
	framesIngested.Set(float64(snap.Ingest.Ingested))
	framesMalformed.Set(float64(snap.Ingest.Malformed))
	framesOutOfOrder.Set(float64(snap.Ingest.OutOfOrder))
	framesDropped.Set(float64(snap.Ingest.Dropped))
	ingestSessions.Set(float64(snap.Ingest.Sessions))

	for _, c := range snap.Queue.Consumers {
		queueDepth.WithLabelValues(c.Name).Set(float64(c.Depth))
		queueDrops.WithLabelValues(c.Name).Set(float64(c.Drops))
	}

	bufferFrames.Set(float64(snap.Buffer.Frames))
	bufferUtilization.Set(snap.Buffer.Utilization)
	if snap.Buffer.OldestAgeSeconds != nil {
		bufferOldestAge.Set(*snap.Buffer.OldestAgeSeconds)
	} else {
		bufferOldestAge.Set(0)
	}

	samplesPublished.Set(float64(snap.Publisher.Published))
	samplesFailed.Set(float64(snap.Publisher.Failed))
	publishRate.Set(snap.Publisher.RateHz)

	if snap.Recording.State == "active" {
		recordingActive.Set(1)
	} else {
		recordingActive.Set(0)
	}
	recordingsTotal.Set(float64(snap.Recording.Total))

	if snap.BusConnected {
		busConnected.Set(1)
	} else {
		busConnected.Set(0)
	}
}
