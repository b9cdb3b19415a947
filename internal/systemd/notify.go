// Package systemd reports daemon state to the service manager over the
// sd_notify protocol.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends readiness, status and watchdog keep-alives. All calls are
// no-ops when the process was not started by systemd.
type Notifier struct {
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier creates a notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Ready reports READY=1 and starts the watchdog loop when WatchdogSec is set.
func (n *Notifier) Ready() {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		n.logger.Warn("sd_notify ready failed", "error", err)
		return
	}
	if !sent {
		return
	}
	n.logger.Debug("Notified systemd readiness")

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.watchdog(ctx, interval/2)
}

// Status sets the free-form STATUS= line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	if _, err := daemon.SdNotify(false, "STATUS="+msg); err != nil {
		n.logger.Debug("sd_notify status failed", "error", err)
	}
}

// Stopping reports STOPPING=1 and ends the watchdog loop.
func (n *Notifier) Stopping() {
	if n.cancel != nil {
		n.cancel()
		<-n.done
		n.cancel = nil
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		n.logger.Debug("sd_notify stopping failed", "error", err)
	}
}

func (n *Notifier) watchdog(ctx context.Context, every time.Duration) {
	defer close(n.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				n.logger.Warn("sd_notify watchdog failed", "error", err)
			}
		}
	}
}
