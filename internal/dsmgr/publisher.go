package dsmgr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// Publisher sends platform HDMI input events. It implements hal.EventSink.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

var _ hal.EventSink = (*Publisher)(nil)

// NewPublisher creates a publisher on an established connection.
func NewPublisher(conn *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger.With("component", "dsmgr-publisher")}
}

type marshaler interface {
	Marshal() ([]byte, error)
}

func (p *Publisher) publish(ctx context.Context, subject string, m marshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Published platform event", "subject", subject, "payload", string(data))
	return nil
}

// Hotplug implements hal.EventSink.
func (p *Publisher) Hotplug(ctx context.Context, port int, connected bool) error {
	return p.publish(ctx, SubjectHotplug, HotplugMessage{Port: port, Connected: connected})
}

// SignalChanged implements hal.EventSink.
func (p *Publisher) SignalChanged(ctx context.Context, port int, status hal.SignalStatus) error {
	return p.publish(ctx, SubjectSignal, SignalMessage{Port: port, Status: status})
}

// StatusChanged implements hal.EventSink.
func (p *Publisher) StatusChanged(ctx context.Context, port int, presented bool) error {
	return p.publish(ctx, SubjectStatus, StatusMessage{Port: port, Presented: presented})
}

// VideoModeChanged implements hal.EventSink.
func (p *Publisher) VideoModeChanged(ctx context.Context, port int, mode hal.VideoResolution) error {
	return p.publish(ctx, SubjectVideoMode, VideoModeMessage{Port: port, Resolution: mode})
}

// ALLMChanged implements hal.EventSink.
func (p *Publisher) ALLMChanged(ctx context.Context, port int, enabled bool) error {
	return p.publish(ctx, SubjectALLM, ALLMMessage{Port: port, Enabled: enabled})
}

// Flush waits until the server has processed everything published so far.
func (p *Publisher) Flush(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return p.conn.Flush()
	}
	return p.conn.FlushWithContext(ctx)
}
