package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/hdmiinput/internal/dsmgr"
	"github.com/smazurov/hdmiinput/internal/hal"
)

// CreateEmitCmd creates the emit command, which publishes one platform bus
// event. Useful for exercising notifications without hardware.
func CreateEmitCmd() *cobra.Command {
	var (
		busURL     string
		port       int
		on         bool
		status     string
		resolution string
		fps        float64
		interlaced bool
		debug      bool
	)

	cmd := &cobra.Command{
		Use:       "emit <hotplug|signal|status|videomode|allm>",
		Short:     "Publish an HDMI input event on the platform bus",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"hotplug", "signal", "status", "videomode", "allm"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := initCLILogging("emit", debug)
			conn, err := dsmgr.Connect(busURL, "hdmiinputd-emit", logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			pub := dsmgr.NewPublisher(conn, logger)
			ctx := cmd.Context()

			switch args[0] {
			case "hotplug":
				err = pub.Hotplug(ctx, port, on)
			case "signal":
				s, ok := parseSignal(status)
				if !ok {
					return fmt.Errorf("unknown signal status %q", status)
				}
				err = pub.SignalChanged(ctx, port, s)
			case "status":
				err = pub.StatusChanged(ctx, port, on)
			case "videomode":
				mode, perr := parseMode(resolution, fps, interlaced)
				if perr != nil {
					return perr
				}
				err = pub.VideoModeChanged(ctx, port, mode)
			case "allm":
				err = pub.ALLMChanged(ctx, port, on)
			default:
				return fmt.Errorf("unknown event %q", args[0])
			}
			if err != nil {
				return err
			}
			return pub.Flush(ctx)
		},
	}

	cmd.Flags().StringVar(&busURL, "bus-url", defaultBusURL, "Platform bus URL")
	cmd.Flags().IntVar(&port, "port", 0, "HDMI input port")
	cmd.Flags().BoolVar(&on, "on", true, "Connected / presented / ALLM enabled")
	cmd.Flags().StringVar(&status, "status", "stable", "Signal status (none, nosignal, unstable, notsupported, stable)")
	cmd.Flags().StringVar(&resolution, "resolution", "1920x1080", "Video resolution")
	cmd.Flags().Float64Var(&fps, "fps", 60, "Frame rate")
	cmd.Flags().BoolVar(&interlaced, "interlaced", false, "Interlaced video")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func parseSignal(s string) (hal.SignalStatus, bool) {
	switch strings.ToLower(s) {
	case "none":
		return hal.SignalNone, true
	case "nosignal":
		return hal.SignalNoSignal, true
	case "unstable":
		return hal.SignalUnstable, true
	case "notsupported":
		return hal.SignalNotSupported, true
	case "stable":
		return hal.SignalStable, true
	}
	return hal.SignalNone, false
}

func parseMode(resolution string, fps float64, interlaced bool) (hal.VideoResolution, error) {
	var w, h int
	if _, err := fmt.Sscanf(resolution, "%dx%d", &w, &h); err != nil {
		return hal.VideoResolution{}, fmt.Errorf("invalid resolution %q", resolution)
	}
	res, ok := hal.ResolutionFromSize(w, h)
	if !ok {
		return hal.VideoResolution{}, fmt.Errorf("unsupported resolution %q", resolution)
	}
	return hal.VideoResolution{
		PixelResolution: res,
		Interlaced:      interlaced,
		FrameRate:       hal.FrameRateFromFPS(fps),
	}, nil
}
