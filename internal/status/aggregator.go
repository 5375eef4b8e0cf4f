// Package status assembles read-only engine snapshots for monitors
// and health checks.
package status

import (
	"time"

	"github.com/framesync/framesync/internal/buffer"
	"github.com/framesync/framesync/internal/marker"
	"github.com/framesync/framesync/internal/publisher"
	"github.com/framesync/framesync/internal/queue"
	"github.com/framesync/framesync/internal/recorder"
)

// ConsumerStatus reports one queue subscriber's backlog.
type ConsumerStatus struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
	Drops uint64 `json:"drops"`
}

// QueueStatus reports the fan-out queue.
type QueueStatus struct {
	Capacity  int              `json:"capacity"`
	Depth     int              `json:"depth"`
	Pushed    uint64           `json:"pushed"`
	Drops     uint64           `json:"drops"`
	Consumers []ConsumerStatus `json:"consumers"`
}

// BufferStatus reports the rolling frame buffer.
type BufferStatus struct {
	Frames           int      `json:"frames"`
	MaxFrames        int      `json:"max_frames"`
	MaxAgeSeconds    float64  `json:"max_age_seconds"`
	Utilization      float64  `json:"utilization"`
	OldestAgeSeconds *float64 `json:"oldest_age_seconds,omitempty"`
	Inserted         uint64   `json:"inserted"`
	Evicted          uint64   `json:"evicted"`
}

// RecordingStatus reports the recording controller.
type RecordingStatus struct {
	State       string            `json:"state"`
	Total       uint64            `json:"total"`
	Session     *recorder.Session `json:"session,omitempty"`
	LastSession *recorder.Session `json:"last_session,omitempty"`
}

// Snapshot is a point-in-time, fully-owned copy of the engine's
// counters. Never mutated after construction.
type Snapshot struct {
	Timestamp     string          `json:"timestamp"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	BusConnected  bool            `json:"bus_connected"`
	Ingest        marker.Stats    `json:"ingest"`
	Queue         QueueStatus     `json:"queue"`
	Buffer        BufferStatus    `json:"buffer"`
	Publisher     publisher.Stats `json:"publisher"`
	Recording     RecordingStatus `json:"recording"`
}

// Aggregator assembles snapshots from the components' lock-bounded
// accessors. Pure read: it never mutates engine state, and each
// accessor holds its own lock only long enough to copy.
type Aggregator struct {
	ingestor   *marker.Ingestor
	queue      *queue.Fanout
	buffer     *buffer.Rolling
	publisher  *publisher.Publisher
	controller *recorder.Controller
	connected  func() bool
	started    time.Time
}

// Options wires an Aggregator. Connected may be nil when no bus is
// configured.
type Options struct {
	Ingestor   *marker.Ingestor
	Queue      *queue.Fanout
	Buffer     *buffer.Rolling
	Publisher  *publisher.Publisher
	Controller *recorder.Controller
	Connected  func() bool
}

// NewAggregator creates an aggregator over the given components.
func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{
		ingestor:   opts.Ingestor,
		queue:      opts.Queue,
		buffer:     opts.Buffer,
		publisher:  opts.Publisher,
		controller: opts.Controller,
		connected:  opts.Connected,
		started:    time.Now(),
	}
}

// Snapshot assembles a point-in-time status copy.
func (a *Aggregator) Snapshot() Snapshot {
	now := time.Now()

	snap := Snapshot{
		Timestamp:     now.Format(time.RFC3339Nano),
		UptimeSeconds: now.Sub(a.started).Seconds(),
		Ingest:        a.ingestor.Stats(),
		Publisher:     a.publisher.Stats(),
	}
	if a.connected != nil {
		snap.BusConnected = a.connected()
	}

	subs := a.queue.Subscribers()
	qs := QueueStatus{
		Capacity:  a.queue.Capacity(),
		Pushed:    a.queue.Pushed(),
		Consumers: make([]ConsumerStatus, 0, len(subs)),
	}
	for _, sub := range subs {
		cs := ConsumerStatus{Name: sub.Name(), Depth: sub.Depth(), Drops: sub.Drops()}
		if cs.Depth > qs.Depth {
			qs.Depth = cs.Depth
		}
		qs.Drops += cs.Drops
		qs.Consumers = append(qs.Consumers, cs)
	}
	snap.Queue = qs

	inserted, evicted := a.buffer.Counters()
	bs := BufferStatus{
		Frames:        a.buffer.Len(),
		MaxFrames:     a.buffer.MaxFrames(),
		MaxAgeSeconds: a.buffer.MaxAge().Seconds(),
		Utilization:   a.buffer.Utilization(),
		Inserted:      inserted,
		Evicted:       evicted,
	}
	if age, ok := a.buffer.OldestAge(now); ok {
		secs := age.Seconds()
		bs.OldestAgeSeconds = &secs
	}
	snap.Buffer = bs

	rs := RecordingStatus{
		State: string(a.controller.State()),
		Total: a.controller.Total(),
	}
	if session, ok := a.controller.Session(); ok {
		rs.Session = &session
	}
	if last, ok := a.controller.LastSession(); ok {
		rs.LastSession = &last
	}
	snap.Recording = rs

	return snap
}
