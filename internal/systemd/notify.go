// Package systemd reports engine readiness to the service manager via
// sd_notify. All calls are no-ops outside a systemd unit.
package systemd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/framesync/framesync/internal/logging"
)

var logger *slog.Logger

func getLogger() *slog.Logger {
	if logger == nil {
		logger = logging.GetLogger("main")
	}
	return logger
}

// NotifyReady signals that the engine is serving.
func NotifyReady() {
	notify(daemon.SdNotifyReady)
}

// NotifyStopping signals that shutdown has begun.
func NotifyStopping() {
	notify(daemon.SdNotifyStopping)
}

// NotifyStatus publishes a free-form status line visible in systemctl.
func NotifyStatus(status string) {
	notify("STATUS=" + status)
}

// NotifyWatchdog sends a keepalive; callers pace it from WatchdogInterval.
func NotifyWatchdog() {
	notify(daemon.SdNotifyWatchdog)
}

// WatchdogInterval returns half the unit's WatchdogSec, the
// recommended keepalive period, or false when no watchdog is armed.
func WatchdogInterval() (time.Duration, bool) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return 0, false
	}
	return interval / 2, true
}

func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		getLogger().Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		getLogger().Debug("sd_notify", "state", fmt.Sprintf("%q", state))
	}
}
