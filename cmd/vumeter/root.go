package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/backend/pulse"
	"github.com/tphakala/go-vumeter/internal/backend/wavfile"
	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/config"
	"github.com/tphakala/go-vumeter/internal/dsp"
)

// appOptions holds the persistent flags. Empty values leave the
// configuration file setting in place.
type appOptions struct {
	configPath string
	backend    string
	device     string
	deviceType string
	wavSources []string
	loop       bool
	preset     string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &appOptions{}

	root := &cobra.Command{
		Use:   "vumeter",
		Short: "Analog-style VU meter for live audio",
		Long: `vumeter shows a stereo VU meter with needle ballistics for a sound
server source (PulseAudio or PipeWire-Pulse) or a WAV file.

System output is metered through the sink monitor against a -14 dBFS
reference; microphones are metered against 0 dBFS. Both references can be
changed and are remembered in the configuration file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeter(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.Path(), "Configuration file")
	flags.StringVar(&opts.backend, "backend", "", "Capture backend: pulse or wav")
	flags.StringVar(&opts.device, "device", "", "Source name (default: the default device)")
	flags.StringVar(&opts.deviceType, "device-type", "", "Default device kind: monitor or microphone")
	flags.StringArrayVar(&opts.wavSources, "wav", nil, "WAV file as a device, name=path (repeatable)")
	flags.BoolVar(&opts.loop, "loop", false, "Loop WAV files")
	flags.StringVar(&opts.preset, "preset", "", "Display range: wide or classic")
	flags.BoolVar(&opts.debug, "debug", false, "Write a debug log to "+debugLogFile)

	root.AddCommand(
		newRunCmd(opts),
		newDevicesCmd(opts),
		newAnalyzeCmd(opts),
		newReferenceCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts *appOptions) (*config.Config, error) {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.device != "" {
		cfg.Device = opts.device
	}
	if opts.deviceType != "" {
		d, err := dsp.ParseDeviceType(opts.deviceType)
		if err != nil {
			return nil, err
		}
		cfg.DeviceType = d
	}
	if len(opts.wavSources) > 0 {
		cfg.WAVSources = opts.wavSources
		if opts.backend == "" {
			cfg.Backend = config.BackendWAV
		}
	}
	if opts.loop {
		cfg.Loop = true
	}
	if opts.preset != "" {
		cfg.Preset = opts.preset
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newBackend builds the capture backend the configuration names.
func newBackend(cfg *config.Config) (capture.Backend, error) {
	switch cfg.Backend {
	case config.BackendPulse:
		return pulse.New(), nil
	case config.BackendWAV:
		sources := make([]wavfile.Source, 0, len(cfg.WAVSources))
		for _, s := range cfg.WAVSources {
			src, err := wavfile.ParseSource(s)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		return wavfile.New(sources, wavfile.Options{Loop: cfg.Loop, Realtime: true})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// setupLogging sends the standard logger to the debug file, or discards it
// so nothing is written over the terminal UI.
func setupLogging(debug bool) (func(), error) {
	if !debug {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { _ = f.Close() }, nil
}
