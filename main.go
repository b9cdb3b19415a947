package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/hdmiinput/cmd"
	"github.com/smazurov/hdmiinput/internal/config"
	"github.com/smazurov/hdmiinput/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"hdmiinput.toml"`

	// Server settings
	Port             string `help:"HTTP listen address" short:"p" default:":9998" toml:"server.port" env:"SERVER_PORT"`
	WebSocketOrigins string `help:"Comma separated origins allowed to open the JSON-RPC WebSocket" default:"" toml:"server.websocket_origins" env:"SERVER_WEBSOCKET_ORIGINS"`

	// Auth settings (empty disables basic auth)
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// HAL settings
	HalBackend          string `help:"HAL backend (sim, v4l2, remote)" default:"sim" toml:"hal.backend" env:"HAL_BACKEND"`
	HalSimPorts         int    `help:"Port count of the sim backend" default:"3" toml:"hal.sim.ports" env:"HAL_SIM_PORTS"`
	HalSimFixture       string `help:"YAML port fixture for the sim backend" default:"" toml:"hal.sim.fixture" env:"HAL_SIM_FIXTURE"`
	HalV4l2PollInterval string `help:"DV timings poll interval" default:"2s" toml:"hal.v4l2.poll_interval" env:"HAL_V4L2_POLL_INTERVAL"`
	HalV4l2CacheTTL     string `help:"Device list cache lifetime" default:"5s" toml:"hal.v4l2.cache_ttl" env:"HAL_V4L2_CACHE_TTL"`
	HalV4l2EdidPad      int    `help:"Pad used for EDID ioctls" default:"0" toml:"hal.v4l2.edid_pad" env:"HAL_V4L2_EDID_PAD"`
	HalRemoteTimeout    string `help:"Remote HAL call timeout" default:"2s" toml:"hal.remote.timeout" env:"HAL_REMOTE_TIMEOUT"`

	// Platform bus settings
	BusEmbedded             bool   `help:"Run an embedded bus server" default:"true" toml:"bus.embedded" env:"BUS_EMBEDDED"`
	BusPort                 int    `help:"Embedded bus server port" default:"4222" toml:"bus.port" env:"BUS_PORT"`
	BusURL                  string `help:"Bus URL when not embedded" default:"nats://127.0.0.1:4222" toml:"bus.url" env:"BUS_URL"`
	BusForwardNotifications bool   `help:"Republish notifications on hdmiinput.notify.*" default:"true" toml:"bus.forward_notifications" env:"BUS_FORWARD_NOTIFICATIONS"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingHdmiinput string `help:"HdmiInput service logging level" default:"info" toml:"logging.modules.hdmiinput" env:"LOGGING_HDMIINPUT"`
	LoggingJsonrpc   string `help:"JSON-RPC logging level" default:"info" toml:"logging.modules.jsonrpc" env:"LOGGING_JSONRPC"`
	LoggingDsmgr     string `help:"Platform bus logging level" default:"info" toml:"logging.modules.dsmgr" env:"LOGGING_DSMGR"`
	LoggingHal       string `help:"HAL logging level" default:"info" toml:"logging.modules.hal" env:"LOGGING_HAL"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.modules.api" env:"LOGGING_API"`
	LoggingHTTP      string `help:"HTTP access logging level" default:"info" toml:"logging.modules.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"hdmiinput": o.LoggingHdmiinput,
			"jsonrpc":   o.LoggingJsonrpc,
			"dsmgr":     o.LoggingDsmgr,
			"hal":       o.LoggingHal,
			"api":       o.LoggingAPI,
			"http":      o.LoggingHTTP,
		},
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		d := newDaemon(opts, logger)

		hooks.OnStart(func() {
			if err := d.start(); err != nil {
				logger.Error("Failed to start", "error", err)
				d.stop()
				os.Exit(1)
			}
			logger.Info("Starting HTTP server", "port", opts.Port)
			if err := d.server.Start(opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", err)
				d.stop()
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			d.stop()
		})
	})

	cli.Root().Use = "hdmiinputd"
	cli.Root().Short = "HDMI input JSON-RPC service"
	cli.Root().AddCommand(
		cmd.CreateDevicesCmd(),
		cmd.CreateEDIDCmd(),
		cmd.CreateEmitCmd(),
		cmd.CreateHalSimCmd(),
	)

	cli.Run()
}
