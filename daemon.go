package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/api"
	"github.com/smazurov/hdmiinput/internal/config"
	"github.com/smazurov/hdmiinput/internal/dsmgr"
	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/hal/backend"
	"github.com/smazurov/hdmiinput/internal/hdmiinput"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
	"github.com/smazurov/hdmiinput/internal/logging"
	"github.com/smazurov/hdmiinput/internal/metrics/exporters"
	"github.com/smazurov/hdmiinput/internal/systemd"
	"github.com/smazurov/hdmiinput/internal/version"
)

const shutdownTimeout = 5 * time.Second

// daemon owns every long-lived component of the serve command.
type daemon struct {
	opts   *Options
	logger *slog.Logger

	eventBus  *events.Bus
	busServer *dsmgr.Server
	conn      *nats.Conn
	bridge    *dsmgr.Bridge
	forwarder *dsmgr.NotificationForwarder
	hal       hal.HdmiInput
	service   *hdmiinput.Service
	hub       *jsonrpc.Hub
	server    *api.Server
	watcher   *config.Watcher[logging.Config]
	notifier  *systemd.Notifier

	cancelWatch context.CancelFunc
	watchDone   chan struct{}
}

func newDaemon(opts *Options, logger *slog.Logger) *daemon {
	return &daemon{
		opts:     opts,
		logger:   logger,
		notifier: systemd.NewNotifier(logging.GetLogger("systemd")),
	}
}

func duration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (d *daemon) start() error {
	opts := d.opts
	d.eventBus = events.New()
	api.ForwardLogs(d.eventBus)

	busURL := opts.BusURL
	if opts.BusEmbedded {
		serverOpts := dsmgr.DefaultServerOptions()
		serverOpts.Port = opts.BusPort
		serverOpts.Logger = logging.GetLogger("dsmgr")
		d.busServer = dsmgr.NewServer(serverOpts)
		if err := d.busServer.Start(); err != nil {
			return fmt.Errorf("start embedded bus: %w", err)
		}
		busURL = d.busServer.ClientURL()
	}

	conn, err := dsmgr.Connect(busURL, "hdmiinputd", logging.GetLogger("dsmgr"))
	if err != nil {
		return err
	}
	d.conn = conn

	d.bridge = dsmgr.NewBridge(conn, d.eventBus, logging.GetLogger("dsmgr"))
	if err := d.bridge.Register(); err != nil {
		return fmt.Errorf("register platform events: %w", err)
	}
	publisher := dsmgr.NewPublisher(conn, logging.GetLogger("dsmgr"))

	d.hal, err = backend.Open(backend.Config{
		Backend:          opts.HalBackend,
		SimPorts:         opts.HalSimPorts,
		SimFixture:       opts.HalSimFixture,
		V4L2PollInterval: duration(opts.HalV4l2PollInterval, 2*time.Second),
		V4L2CacheTTL:     duration(opts.HalV4l2CacheTTL, 5*time.Second),
		V4L2EDIDPad:      uint32(max(opts.HalV4l2EdidPad, 0)),
		RemoteURL:        busURL,
		RemoteTimeout:    duration(opts.HalRemoteTimeout, 2*time.Second),
	}, publisher, logging.GetLogger("hal"))
	if err != nil {
		return fmt.Errorf("open hal: %w", err)
	}
	d.logger.Info("HAL opened", "backend", opts.HalBackend)

	if w, ok := d.hal.(backend.Watcher); ok {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancelWatch = cancel
		d.watchDone = make(chan struct{})
		go func() {
			defer close(d.watchDone)
			if err := w.Watch(ctx, publisher); err != nil {
				d.logger.Error("HAL watcher stopped", "error", err)
			}
		}()
	}

	d.service = hdmiinput.New(d.hal, d.eventBus)
	if err := d.service.Initialize(); err != nil {
		return err
	}

	router, err := jsonrpc.NewRouter(hdmiinput.Callsign, version.APIVersion)
	if err != nil {
		return err
	}
	d.service.Register(router)

	d.hub = jsonrpc.NewHub(d.eventBus)
	d.hub.Start()

	if opts.BusForwardNotifications {
		d.forwarder = dsmgr.NewNotificationForwarder(conn, d.eventBus, logging.GetLogger("dsmgr"))
		d.forwarder.Start()
	}

	apiOpts := &api.Options{
		AuthUsername:     opts.AuthUsername,
		AuthPassword:     opts.AuthPassword,
		WebSocketOrigins: splitList(opts.WebSocketOrigins),
		Service:          d.service,
		Router:           router,
		Hub:              d.hub,
		EventBus:         d.eventBus,
		OnListening: func() {
			d.notifier.Status(fmt.Sprintf("serving %s on %s", hdmiinput.Callsign, opts.Port))
			d.notifier.Ready()
		},
	}
	if opts.MetricsEnabled {
		apiOpts.PrometheusHandler = exporters.HTTPHandler()
	}
	d.server = api.NewServer(apiOpts)

	d.watcher = config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, d.logger)
	d.watcher.OnReload(func(cfg logging.Config) {
		d.logger.Info("Configuration reloaded, applying log levels", "level", cfg.Level)
		logging.SetLevels(cfg)
	})
	if err := d.watcher.Start(); err != nil {
		d.logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
		d.watcher = nil
	}

	return nil
}

// stop tears components down in reverse start order. It tolerates a
// partially started daemon.
func (d *daemon) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	d.notifier.Stopping()

	if d.server != nil {
		if err := d.server.Stop(ctx); err != nil {
			d.logger.Error("Error stopping HTTP server", "error", err)
		}
	}
	if d.watcher != nil {
		_ = d.watcher.Stop()
	}
	if d.cancelWatch != nil {
		d.cancelWatch()
		select {
		case <-d.watchDone:
		case <-ctx.Done():
			d.logger.Warn("HAL watcher did not stop in time")
		}
	}
	if d.service != nil {
		d.service.Deinitialize()
	}
	if d.forwarder != nil {
		d.forwarder.Stop()
	}
	if d.hub != nil {
		d.hub.Stop()
	}
	if d.bridge != nil {
		d.bridge.Unregister()
	}
	if d.hal != nil {
		if err := d.hal.Close(); err != nil {
			d.logger.Warn("Error closing HAL", "error", err)
		}
	}
	if d.conn != nil {
		if err := d.conn.Drain(); err != nil {
			d.conn.Close()
		}
	}
	if d.busServer != nil {
		d.busServer.Stop()
	}
	if d.eventBus != nil {
		logging.SetLogCallback(nil)
		_ = d.eventBus.Close()
	}
}
