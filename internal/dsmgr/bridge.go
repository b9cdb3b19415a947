package dsmgr

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/metrics"
)

// Bridge subscribes to the platform HDMI input subjects and forwards decoded
// messages to the event bus.
type Bridge struct {
	conn     *nats.Conn
	eventBus *events.Bus
	subs     []*nats.Subscription
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewBridge creates a bridge on an established connection.
func NewBridge(conn *nats.Conn, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		conn:     conn,
		eventBus: eventBus,
		logger:   logger.With("component", "dsmgr-bridge"),
	}
}

// Register subscribes to every HDMI input subject. Calling it while
// registered is a no-op.
func (b *Bridge) Register() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs) > 0 {
		return nil
	}

	handlers := []struct {
		subject string
		handle  nats.MsgHandler
	}{
		{SubjectHotplug, forward(b, func(m HotplugMessage) events.Event {
			return events.HotplugEvent{Port: m.Port, Connected: m.Connected}
		})},
		{SubjectSignal, forward(b, func(m SignalMessage) events.Event {
			return events.SignalStatusEvent{Port: m.Port, Status: m.Status}
		})},
		{SubjectStatus, forward(b, func(m StatusMessage) events.Event {
			return events.InputStatusEvent{Port: m.Port, Presented: m.Presented}
		})},
		{SubjectVideoMode, forward(b, func(m VideoModeMessage) events.Event {
			return events.VideoModeEvent{Port: m.Port, Resolution: m.Resolution}
		})},
		{SubjectALLM, forward(b, func(m ALLMMessage) events.Event {
			return events.GameFeatureStatusEvent{Port: m.Port, Feature: hal.GameFeatureALLM, Enabled: m.Enabled}
		})},
	}

	for _, h := range handlers {
		sub, err := b.conn.Subscribe(h.subject, h.handle)
		if err != nil {
			b.cleanup()
			return fmt.Errorf("subscribe %s: %w", h.subject, err)
		}
		b.subs = append(b.subs, sub)
	}

	b.logger.Info("Registered for platform HDMI input events", "subjects", len(b.subs))
	return nil
}

// forward returns a handler decoding T and publishing the converted event.
func forward[T any](b *Bridge, convert func(T) events.Event) nats.MsgHandler {
	return func(msg *nats.Msg) {
		metrics.IncBusEvent(msg.Subject)

		m, err := Unmarshal[T](msg.Data)
		if err != nil {
			b.logger.Warn("Dropping undecodable bus message", "subject", msg.Subject, "error", err)
			return
		}

		ev := convert(m)
		b.eventBus.Publish(ev)
		b.logger.Debug("Received platform event", "subject", msg.Subject, "event", ev)
	}
}

// cleanup unsubscribes everything (must hold lock).
func (b *Bridge) cleanup() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
}

// Unregister drops the subscriptions. The connection stays open.
func (b *Bridge) Unregister() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subs) == 0 {
		return
	}
	b.cleanup()
	b.logger.Info("Unregistered platform HDMI input events")
}

// IsConnected returns true if the bridge's connection is up.
func (b *Bridge) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}
