package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
)

func newDevicesCmd(opts *appOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Long:  `List the monitor and input sources of the selected backend and mark the defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			backend, err := newBackend(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
			defer cancel()
			devices, err := backend.Devices(ctx)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(devices, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return writeDevices(cmd.OutOrStdout(), devices)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output devices as JSON")
	return cmd
}

// writeDevices prints monitors first, then inputs, each with its default
// marker, followed by usage help.
func writeDevices(w io.Writer, devices []capture.DeviceInfo) error {
	sections := []struct {
		title string
		kind  dsp.DeviceType
	}{
		{"=== Monitor Sources ===", dsp.DeviceMonitor},
		{"=== Input Sources ===", dsp.DeviceMicrophone},
	}

	for _, sec := range sections {
		if _, err := fmt.Fprintln(w, sec.title); err != nil {
			return err
		}
		for _, d := range devices {
			if d.Kind != sec.kind {
				continue
			}
			marker := ""
			if d.IsDefault {
				marker = defaultMarker
			}
			if _, err := fmt.Fprintf(w, "Source: %s%s\n", d.Name, marker); err != nil {
				return err
			}
			if d.Channels > 0 {
				if _, err := fmt.Fprintf(w, "  Channels: %d\n", d.Channels); err != nil {
					return err
				}
			}
			if d.ID != "" && d.ID != d.Name {
				if _, err := fmt.Fprintf(w, "  ID: %s\n", d.ID); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, usageText)
	return err
}
