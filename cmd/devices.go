package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var flags halFlags
	var debug bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List HDMI inputs",
		Long:  `Lists the HDMI input ports of the selected HAL backend with their connection state, EDID version and ALLM mode.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := initCLILogging("devices", debug)
			h, err := flags.open(logger)
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout*4)
			defer cancel()
			return listDevices(ctx, h)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func listDevices(ctx context.Context, h hal.HdmiInput) error {
	n, err := h.NumberOfInputs(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tCONNECTED\tEDID\tALLM")
	for port := 0; port < n; port++ {
		connected, err := h.IsPortConnected(ctx, port)
		if err != nil {
			return err
		}
		edidVersion := "-"
		if v, err := h.EdidVersion(ctx, port); err == nil && v.String() != "" {
			edidVersion = v.String()
		}
		allm := "-"
		if on, err := h.ALLMStatus(ctx, port); err == nil {
			allm = fmt.Sprint(on)
		}
		fmt.Fprintf(w, "%d\t%v\t%s\t%s\n", port, connected, edidVersion, allm)
	}
	return w.Flush()
}

