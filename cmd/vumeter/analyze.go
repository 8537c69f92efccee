package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/analysis"
)

type analyzeOptions struct {
	fragmentMs int
	warmup     time.Duration
	trace      bool
	jsonOutput bool
}

func newAnalyzeCmd(opts *appOptions) *cobra.Command {
	aopts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Run a WAV file through the meter and report the readings",
		Long: `Feed a WAV file through the meter in fixed fragments, exactly as a live
source would deliver it, and report per-channel VU statistics, needle angles
and the raw signal level.

The reference level follows the device type: use --device-type microphone
for voice recordings and the default monitor reference for mastered audio.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ao := analysis.DefaultOptions()
			ao.Fragment = time.Duration(aopts.fragmentMs) * time.Millisecond
			ao.Reference = cfg.ReferenceLevels.Options(cfg.DeviceKind())
			ao.Range = cfg.Range()
			ao.Ballistics = cfg.BallisticsConfig()
			ao.Table = cfg.ScaleTable()
			ao.Warmup = aopts.warmup
			ao.KeepTrace = aopts.trace

			report, err := analysis.AnalyzeFile(cmd.Context(), args[0], ao)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if aopts.jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			return writeReport(out, args[0], report)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&aopts.fragmentMs, "fragment-ms", defaultFragmentMs, "Fragment length in milliseconds")
	flags.DurationVar(&aopts.warmup, "warmup", 0, "Leave the start of the file out of the statistics")
	flags.BoolVar(&aopts.trace, "trace", false, "Print every reading")
	flags.BoolVar(&aopts.jsonOutput, "json", false, "Output the report as JSON")
	return cmd
}

func writeReport(w io.Writer, path string, r *analysis.Report) error {
	p := &printer{w: w}
	p.printf("File: %s\n", path)
	p.printf("Format: %d Hz, %d channel(s), %v, %d fragments\n",
		r.SampleRate, r.Channels, r.Duration.Round(time.Millisecond), r.Fragments)
	p.printf("Reference: %.1f dBFS = 0 VU\n\n", r.ReferenceDbfs)

	p.printf("%-8s %8s %8s\n", "", "Left", "Right")
	row := func(name, format string, l, r float64) {
		p.printf("%-8s "+format+" "+format+"\n", name, l, r)
	}
	row("Mean VU", "%8.2f", r.Left.Mean, r.Right.Mean)
	row("StdDev", "%8.2f", r.Left.StdDev, r.Right.StdDev)
	row("Min VU", "%8.2f", r.Left.Min, r.Right.Min)
	row("Median", "%8.2f", r.Left.Median, r.Right.Median)
	row("P95 VU", "%8.2f", r.Left.P95, r.Right.P95)
	row("Max VU", "%8.2f", r.Left.Max, r.Right.Max)
	row("Angle", "%8.1f", float64(r.Left.MeanAngle), float64(r.Right.MeanAngle))
	row("MaxAngle", "%8.1f", float64(r.Left.MaxAngle), float64(r.Right.MaxAngle))
	row("RMS dBFS", "%8.2f", r.Left.RMSDbfs, r.Right.RMSDbfs)
	row("Peak", "%8.2f", r.Left.PeakDbfs, r.Right.PeakDbfs)
	row("DC", "%8.4f", r.Left.DCOffset, r.Right.DCOffset)

	if len(r.Trace) > 0 {
		p.printf("\n%10s %8s %8s %8s %8s\n", "time", "L VU", "R VU", "L deg", "R deg")
		for _, t := range r.Trace {
			p.printf("%10s %8.2f %8.2f %8.1f %8.1f\n",
				t.Time.Round(time.Millisecond), t.Left, t.Right, t.LeftAngle, t.RightAngle)
		}
	}
	return p.err
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
