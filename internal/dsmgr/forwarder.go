package dsmgr

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/events"
)

// NotificationForwarder republishes every service notification on
// hdmiinput.notify.<event>. The payload is the notification's params object.
type NotificationForwarder struct {
	conn     *nats.Conn
	eventBus *events.Bus
	logger   *slog.Logger

	mu    sync.Mutex
	unsub func()
}

// NewNotificationForwarder creates a forwarder. Start begins forwarding.
func NewNotificationForwarder(conn *nats.Conn, eventBus *events.Bus, logger *slog.Logger) *NotificationForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationForwarder{
		conn:     conn,
		eventBus: eventBus,
		logger:   logger.With("component", "notify-forwarder"),
	}
}

// Start subscribes to notifications on the event bus.
func (f *NotificationForwarder) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unsub != nil {
		return
	}
	f.unsub = f.eventBus.Subscribe(f.forward)
}

// Stop unsubscribes from the event bus.
func (f *NotificationForwarder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unsub != nil {
		f.unsub()
		f.unsub = nil
	}
}

func (f *NotificationForwarder) forward(n events.NotificationEvent) {
	params := n.Params
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		f.logger.Warn("Failed to marshal notification", "event", n.Event, "error", err)
		return
	}

	if err := f.conn.Publish(SubjectNotify(n.Event), data); err != nil {
		f.logger.Warn("Failed to forward notification", "event", n.Event, "error", err)
	}
}
