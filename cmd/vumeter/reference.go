package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/config"
	"github.com/tphakala/go-vumeter/internal/dsp"
)

func newReferenceCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Show or change the 0 VU reference levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, err := config.NewFileStore(opts.configPath).LoadReferenceLevels()
			if err != nil {
				return err
			}
			return writeLevels(cmd, levels)
		},
	}

	set := &cobra.Command{
		Use:   "set <monitor|microphone> <dBFS>",
		Short: "Store a reference level and enable the override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dsp.ParseDeviceType(args[0])
			if err != nil {
				return err
			}
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid reference level %q: %w", args[1], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid reference level %q: must be finite", args[1])
			}
			return updateLevels(cmd, opts, func(l capture.ReferenceLevels) capture.ReferenceLevels {
				l = l.With(d, v)
				l.Override = true
				return l
			})
		},
	}

	// Levels are usually negative; stop flag parsing at the device type so
	// "-18" is not read as a shorthand flag.
	set.Flags().SetInterspersed(false)

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Use the built-in references again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateLevels(cmd, opts, func(l capture.ReferenceLevels) capture.ReferenceLevels {
				l.Override = false
				return l
			})
		},
	}

	cmd.AddCommand(set, reset)
	return cmd
}

func updateLevels(cmd *cobra.Command, opts *appOptions, fn func(capture.ReferenceLevels) capture.ReferenceLevels) error {
	store := config.NewFileStore(opts.configPath)
	levels, err := store.LoadReferenceLevels()
	if err != nil {
		return err
	}
	levels = fn(levels)
	if err := store.SaveReferenceLevels(levels); err != nil {
		return err
	}
	return writeLevels(cmd, levels)
}

func writeLevels(cmd *cobra.Command, l capture.ReferenceLevels) error {
	mode := "built-in defaults"
	if l.Override {
		mode = "stored levels"
	}
	monitor := l.Options(dsp.DeviceMonitor).EffectiveReferenceDbfs()
	mic := l.Options(dsp.DeviceMicrophone).EffectiveReferenceDbfs()

	_, err := fmt.Fprintf(cmd.OutOrStdout(),
		"Using %s\n  monitor:    %6.1f dBFS (stored %.1f)\n  microphone: %6.1f dBFS (stored %.1f)\n",
		mode, monitor, l.Monitor, mic, l.Microphone)
	return err
}
