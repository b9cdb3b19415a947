// Package cmd holds the hdmiinputd subcommands.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/hal/backend"
	"github.com/smazurov/hdmiinput/internal/logging"
)

const defaultBusURL = "nats://127.0.0.1:4222"

// halFlags selects the HAL backend for one-shot commands.
type halFlags struct {
	backend    string
	busURL     string
	simPorts   int
	simFixture string
	timeout    time.Duration
}

func (f *halFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", backend.Remote, "HAL backend (sim, v4l2, remote)")
	cmd.Flags().StringVar(&f.busURL, "bus-url", defaultBusURL, "Platform bus URL for the remote backend")
	cmd.Flags().IntVar(&f.simPorts, "sim-ports", 3, "Port count of the sim backend")
	cmd.Flags().StringVar(&f.simFixture, "fixture", "", "YAML port fixture for the sim backend")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Second, "Per-call timeout")
}

func (f *halFlags) open(logger *slog.Logger) (hal.HdmiInput, error) {
	return backend.Open(backend.Config{
		Backend:       f.backend,
		SimPorts:      f.simPorts,
		SimFixture:    f.simFixture,
		RemoteURL:     f.busURL,
		RemoteTimeout: f.timeout,
	}, nil, logger)
}

// initCLILogging sets up minimal logging for one-shot commands.
func initCLILogging(module string, debug bool) *slog.Logger {
	cfg := logging.Config{Level: "warn", Format: "text"}
	if debug {
		cfg.Level = "debug"
	}
	logging.Initialize(cfg)
	return logging.GetLogger(module)
}

func parsePort(s string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &port); err != nil || port < 0 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}
