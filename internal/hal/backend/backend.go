// Package backend selects and opens the configured HDMI input HAL.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/hdmiinput/internal/dsmgr"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/hal/remote"
	"github.com/smazurov/hdmiinput/internal/hal/sim"
)

// Backend names accepted in Config.Backend.
const (
	Sim    = "sim"
	V4L2   = "v4l2"
	Remote = "remote"
)

// ErrUnknownBackend is returned for an unrecognised Config.Backend.
var ErrUnknownBackend = errors.New("unknown hal backend")

// ErrInvalidPortCount is returned for a negative sim port count.
var ErrInvalidPortCount = errors.New("invalid sim port count")

// Config selects a backend and carries its settings.
type Config struct {
	Backend string

	SimPorts   int
	SimFixture string

	V4L2PollInterval time.Duration
	V4L2CacheTTL     time.Duration
	V4L2EDIDPad      uint32

	RemoteURL     string
	RemoteTimeout time.Duration
}

// Watcher is implemented by backends that detect platform events themselves
// and report them to a sink.
type Watcher interface {
	Watch(ctx context.Context, sink hal.EventSink) error
}

// Open returns the backend named by cfg. sink receives the events the sim
// backend raises; other backends ignore it.
func Open(cfg Config, sink hal.EventSink, logger *slog.Logger) (hal.HdmiInput, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case Sim, "":
		h, err := openSim(cfg, sink)
		if err != nil {
			return nil, err
		}
		return h, nil
	case V4L2:
		return openV4L2(cfg)
	case Remote:
		conn, err := dsmgr.Connect(cfg.RemoteURL, "hdmiinputd-hal", logger)
		if err != nil {
			return nil, fmt.Errorf("connect to remote hal at %s: %w", cfg.RemoteURL, err)
		}
		return remote.NewClient(conn, cfg.RemoteTimeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func openSim(cfg Config, sink hal.EventSink) (*sim.HAL, error) {
	n := cfg.SimPorts
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPortCount, n)
	case n == 0:
		n = 3
	}
	opts := []sim.Option{sim.WithSink(sink)}

	if cfg.SimFixture != "" {
		fx, err := sim.LoadFixture(cfg.SimFixture)
		if err != nil {
			return nil, err
		}
		fxOpts, err := fx.Options()
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", cfg.SimFixture, err)
		}
		opts = append(opts, fxOpts...)
	}

	return sim.New(n, opts...), nil
}
