package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CreateEDIDCmd creates the edid command with read and write subcommands.
func CreateEDIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edid",
		Short: "Read or write the EDID of an HDMI input",
	}
	cmd.AddCommand(createEDIDReadCmd(), createEDIDWriteCmd())
	return cmd
}

func createEDIDReadCmd() *cobra.Command {
	var flags halFlags
	var out string
	var debug bool

	cmd := &cobra.Command{
		Use:   "read <port>",
		Short: "Print or save the EDID of a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			logger := initCLILogging("edid", debug)
			h, err := flags.open(logger)
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			edid, err := h.EDIDBytes(ctx, port)
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, edid, 0o644)
			}
			fmt.Print(hex.Dump(edid))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the raw EDID to a file instead of printing it")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func createEDIDWriteCmd() *cobra.Command {
	var flags halFlags
	var debug bool

	cmd := &cobra.Command{
		Use:   "write <port> <file>",
		Short: "Program a port with the EDID stored in file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			edid, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			logger := initCLILogging("edid", debug)
			h, err := flags.open(logger)
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()
			if err := h.WriteEDID(ctx, port, edid); err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes to port %d\n", len(edid), port)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
