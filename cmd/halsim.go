package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/hdmiinput/internal/dsmgr"
	"github.com/smazurov/hdmiinput/internal/hal/backend"
	"github.com/smazurov/hdmiinput/internal/hal/remote"
)

// CreateHalSimCmd creates the halsim command: a simulated vendor HAL
// served on the platform bus. Its mutators publish platform events, so
// `hdmiinputd --hal.backend remote` against it behaves like real hardware.
func CreateHalSimCmd() *cobra.Command {
	var (
		busURL   string
		embedded bool
		busPort  int
		ports    int
		fixture  string
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "halsim",
		Short: "Serve a simulated HDMI input HAL on the platform bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := initCLILogging("halsim", debug)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if embedded {
				opts := dsmgr.DefaultServerOptions()
				opts.Port = busPort
				opts.Name = "halsim"
				opts.Logger = logger
				srv := dsmgr.NewServer(opts)
				if err := srv.Start(); err != nil {
					return err
				}
				defer srv.Stop()
				busURL = srv.ClientURL()
			}

			conn, err := dsmgr.Connect(busURL, "hdmiinputd-halsim", logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			h, err := backend.Open(backend.Config{
				Backend:    backend.Sim,
				SimPorts:   ports,
				SimFixture: fixture,
			}, dsmgr.NewPublisher(conn, logger), logger)
			if err != nil {
				return err
			}
			defer h.Close()

			srv, err := remote.Serve(conn, h, logger)
			if err != nil {
				return err
			}
			defer srv.Stop()

			logger.Warn("Simulated HAL ready", "bus", busURL, "ports", ports)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&busURL, "bus-url", defaultBusURL, "Platform bus URL")
	cmd.Flags().BoolVar(&embedded, "embedded-bus", false, "Run an embedded bus server instead of connecting to --bus-url")
	cmd.Flags().IntVar(&busPort, "bus-port", 4222, "Port of the embedded bus server")
	cmd.Flags().IntVar(&ports, "ports", 3, "Number of simulated ports")
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML file with initial port state")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
