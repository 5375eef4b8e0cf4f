// Package bus connects the engine to the external real-time bus over
// NATS. The client degrades gracefully: when the bus is unreachable
// the engine keeps running and publishes are counted as failures.
package bus

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned by publishes while the bus is down.
var ErrNotConnected = errors.New("bus not connected")

// CommandFunc handles one remote command and returns the reply.
type CommandFunc func(CommandMessage) ResultMessage

// Client is the engine's NATS connection. It publishes samples, stream
// metadata and state changes, and receives remote commands.
type Client struct {
	url       string
	sourceID  string
	conn      *nats.Conn
	sub       *nats.Subscription
	logger    *slog.Logger
	mu        sync.RWMutex
	onCommand CommandFunc
	connected bool
}

// NewClient creates a bus client for the given source.
func NewClient(url, sourceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:      url,
		sourceID: sourceID,
		logger:   logger.With("component", "bus-client", "source_id", sourceID),
	}
}

// Connect establishes the NATS connection. A failed connect leaves the
// client in offline mode; the error is returned for reporting only.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := []nats.Option{
		nats.Name("framesync-" + c.sourceID),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			if err != nil {
				c.logger.Warn("Bus disconnected", "error", err)
			} else {
				c.logger.Debug("Bus disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("Bus reconnected")
			// nats re-establishes live subscriptions itself, but a
			// handler registered while disconnected has none yet.
			c.resubscribe()
		}),
		nats.ConnectHandler(func(_ *nats.Conn) {
			c.logger.Debug("Bus connected")
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.logger.Warn("Failed to connect to bus, running in offline mode", "error", err)
		return err
	}

	c.conn = conn
	c.connected = true
	c.logger.Info("Connected to bus", "url", c.url)

	c.subscribeCommandLocked()
	return nil
}

// resubscribe re-establishes the command subscription from nats
// handler goroutines, which run without the client lock held.
func (c *Client) resubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribeCommandLocked()
}

// subscribeCommandLocked subscribes to the command subject (must hold lock).
func (c *Client) subscribeCommandLocked() {
	if c.conn == nil || c.onCommand == nil {
		return
	}

	subject := SubjectCommand(c.sourceID)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		cmd, err := UnmarshalCommand(msg.Data)
		if err != nil {
			c.logger.Warn("Failed to unmarshal command", "error", err)
			c.reply(msg, ResultMessage{OK: false, Status: "bad_command"})
			return
		}

		c.logger.Info("Received remote command", "action", cmd.Action)
		c.reply(msg, c.onCommand(cmd))
	})
	if err != nil {
		c.logger.Warn("Failed to subscribe to commands", "error", err)
		return
	}

	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	c.sub = sub
}

func (c *Client) reply(msg *nats.Msg, res ResultMessage) {
	if msg.Reply == "" {
		return
	}
	data, err := res.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal command reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		c.logger.Warn("Failed to send command reply", "error", err)
	}
}

// OnCommand sets the remote command handler.
func (c *Client) OnCommand(fn CommandFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommand = fn

	if c.conn != nil && c.connected {
		c.subscribeCommandLocked()
	}
}

// PublishSample publishes one frame timing sample. Returns
// ErrNotConnected while offline so the publisher can count the miss.
func (c *Client) PublishSample(s Sample) error {
	conn, ok := c.live()
	if !ok {
		return ErrNotConnected
	}

	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return conn.Publish(SubjectSamples(c.sourceID), data)
}

// PublishMeta announces the sample stream metadata.
// No-op if not connected (graceful degradation).
func (c *Client) PublishMeta(m MetaMessage) {
	conn, ok := c.live()
	if !ok {
		return
	}

	data, err := m.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal meta", "error", err)
		return
	}
	if err := conn.Publish(SubjectMeta(c.sourceID), data); err != nil {
		c.logger.Warn("Failed to publish meta", "error", err)
	}
}

// PublishState publishes an engine state change.
// No-op if not connected (graceful degradation).
func (c *Client) PublishState(m StateMessage) {
	conn, ok := c.live()
	if !ok {
		return
	}

	data, err := m.Marshal()
	if err != nil {
		c.logger.Warn("Failed to marshal state", "error", err)
		return
	}
	if err := conn.Publish(SubjectState(c.sourceID), data); err != nil {
		c.logger.Warn("Failed to publish state", "error", err)
	}
}

func (c *Client) live() (*nats.Conn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || !c.connected {
		return nil, false
	}
	return c.conn, true
}

// IsConnected returns true if connected to the bus.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn != nil
}

// Close closes the bus connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		_ = c.sub.Unsubscribe()
		c.sub = nil
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.connected = false
	c.logger.Debug("Bus client closed")
}
