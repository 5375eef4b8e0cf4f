package bus

import (
	"errors"
	"sync"
	"testing"
)

func TestClientOfflineBehavior(t *testing.T) {
	c := NewClient("nats://127.0.0.1:1", "cam0", nil)

	if c.IsConnected() {
		t.Error("IsConnected = true before Connect")
	}

	// Publishing a sample offline must fail loudly so the publisher
	// counts the miss.
	err := c.PublishSample(Sample{FrameNumber: 1})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishSample offline = %v, want ErrNotConnected", err)
	}

	// Meta and state publishes degrade silently.
	c.PublishMeta(MetaMessage{SourceID: "cam0"})
	c.PublishState(StateMessage{SourceID: "cam0", State: "idle"})

	c.OnCommand(func(CommandMessage) ResultMessage {
		return ResultMessage{OK: true}
	})

	c.Close()
	c.Close() // idempotent
}

// The reconnect handler runs on a nats goroutine, so resubscription
// must hold the client lock against concurrent OnCommand and Close.
func TestClientResubscribeConcurrency(t *testing.T) {
	c := NewClient("nats://127.0.0.1:1", "cam0", nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.resubscribe()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.OnCommand(func(CommandMessage) ResultMessage {
					return ResultMessage{OK: true}
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Close()
			}
		}()
	}
	wg.Wait()
}
