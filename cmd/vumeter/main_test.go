package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-vumeter/internal/analysis"
	"github.com/tphakala/go-vumeter/internal/backend/pulse"
	"github.com/tphakala/go-vumeter/internal/backend/wavfile"
	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/config"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/testutil"
)

// execute runs the command tree against a private configuration file.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func tempConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), config.ConfigFileName)
}

func TestLoadConfigOverrides(t *testing.T) {
	opts := &appOptions{
		configPath: tempConfig(t),
		device:     "mic",
		deviceType: "microphone",
		wavSources: []string{"mic=/tmp/mic.wav"},
		loop:       true,
		preset:     "classic",
	}
	cfg, err := loadConfig(opts)
	require.NoError(t, err)

	assert.Equal(t, config.BackendWAV, cfg.Backend, "--wav implies the wav backend")
	assert.Equal(t, "mic", cfg.Device)
	assert.Equal(t, dsp.DeviceMicrophone, cfg.DeviceType)
	assert.True(t, cfg.Loop)
	assert.Equal(t, dsp.RangeClassic, cfg.Range())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(&appOptions{configPath: tempConfig(t), deviceType: "speaker"})
	require.ErrorIs(t, err, dsp.ErrUnknownDeviceType)

	_, err = loadConfig(&appOptions{configPath: tempConfig(t), preset: "huge"})
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = loadConfig(&appOptions{configPath: tempConfig(t), backend: "wav"})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	b, err := newBackend(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &pulse.Backend{}, b)

	cfg.Backend = config.BackendWAV
	cfg.WAVSources = []string{"a=/tmp/a.wav"}
	b, err = newBackend(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &wavfile.Backend{}, b)

	cfg.WAVSources = []string{"a="}
	_, err = newBackend(&cfg)
	require.Error(t, err)

	cfg.Backend = "jack"
	_, err = newBackend(&cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestWriteDevices(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeDevices(&b, []capture.DeviceInfo{
		{Name: "alsa_input.usb", ID: "alsa_input.usb", Channels: 1, Kind: dsp.DeviceMicrophone},
		{Name: "alsa_output.pci.monitor", ID: "alsa_output.pci.monitor", Channels: 2, IsDefault: true, Kind: dsp.DeviceMonitor},
	}))

	out := b.String()
	assert.Contains(t, out, "=== Monitor Sources ===\nSource: alsa_output.pci.monitor   [DEFAULT]\n  Channels: 2\n")
	assert.Contains(t, out, "=== Input Sources ===\nSource: alsa_input.usb\n  Channels: 1\n")
	assert.Contains(t, out, "--device-type microphone")
	assert.Less(t, strings.Index(out, "Monitor"), strings.Index(out, "Input"))
}

func TestDevicesCommand(t *testing.T) {
	path := testutil.WriteWAV(t, "tone.wav", testutil.StereoConstant(480, 0.1), 48000, 2, 16)

	out, err := execute(t, tempConfig(t), "devices", "--wav", "tone.monitor="+path)
	require.NoError(t, err)
	assert.Contains(t, out, "Source: tone.monitor   [DEFAULT]")
	assert.Contains(t, out, "ID: "+path)

	out, err = execute(t, tempConfig(t), "devices", "--json", "--wav", "tone.monitor="+path)
	require.NoError(t, err)
	var devices []capture.DeviceInfo
	require.NoError(t, json.Unmarshal([]byte(out), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, dsp.DeviceMonitor, devices[0].Kind)
	assert.Equal(t, 2, devices[0].Channels)
}

func TestRunReturnsStartError(t *testing.T) {
	path := testutil.WriteWAV(t, "tone.wav", testutil.StereoConstant(480, 0.1), 48000, 2, 16)

	for _, args := range [][]string{
		{"--wav", "tone.monitor=" + path, "--device", "missing"},
		{"run", "--wav", "tone.monitor=" + path, "--device", "missing"},
	} {
		cfgPath := tempConfig(t)
		done := make(chan error, 1)
		go func() {
			_, err := execute(t, cfgPath, args...)
			done <- err
		}()

		select {
		case err := <-done:
			require.ErrorIs(t, err, capture.ErrDeviceNotFound, args)
		case <-time.After(5 * time.Second):
			t.Fatalf("vumeter %v did not return after the device failed to open", args)
		}
	}
}

func TestAnalyzeCommand(t *testing.T) {
	path := testutil.WriteWAV(t, "tone.wav", testutil.StereoConstant(48000, 0.1), 48000, 2, 16)

	out, err := execute(t, tempConfig(t), "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Reference: -14.0 dBFS = 0 VU")
	assert.Contains(t, out, "100 fragments")
	assert.Contains(t, out, "Mean VU     -6.00    -6.00")

	out, err = execute(t, tempConfig(t), "analyze", "--json", "--device-type", "microphone", path)
	require.NoError(t, err)
	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.InDelta(t, 0.0, report.ReferenceDbfs, 0)
	assert.InDelta(t, -20.0, report.Left.Mean, 0.01)

	out, err = execute(t, tempConfig(t), "analyze", "--trace", "--fragment-ms", "100", path)
	require.NoError(t, err)
	assert.Contains(t, out, "L deg")
	assert.Contains(t, out, "1s")

	_, err = execute(t, tempConfig(t), "analyze")
	require.Error(t, err)
}

func TestReferenceCommands(t *testing.T) {
	cfgPath := tempConfig(t)

	out, err := execute(t, cfgPath, "reference")
	require.NoError(t, err)
	assert.Contains(t, out, "Using built-in defaults")
	assert.Contains(t, out, "monitor:     -14.0 dBFS")

	out, err = execute(t, cfgPath, "reference", "set", "monitor", "-18")
	require.NoError(t, err)
	assert.Contains(t, out, "Using stored levels")
	assert.Contains(t, out, "monitor:     -18.0 dBFS")

	levels, err := config.NewFileStore(cfgPath).LoadReferenceLevels()
	require.NoError(t, err)
	assert.Equal(t, capture.ReferenceLevels{Microphone: 0, Monitor: -18, Override: true}, levels)

	// The stored reference moves the analysis readings.
	path := testutil.WriteWAV(t, "tone.wav", testutil.StereoConstant(4800, 0.1), 48000, 2, 16)
	out, err = execute(t, cfgPath, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Reference: -18.0 dBFS")

	out, err = execute(t, cfgPath, "reference", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "monitor:     -14.0 dBFS (stored -18.0)")

	out, err = execute(t, cfgPath, "reference", "set", "microphone", "-6.5")
	require.NoError(t, err)
	assert.Contains(t, out, "microphone:   -6.5 dBFS")

	_, err = execute(t, cfgPath, "reference", "set", "tape", "-3")
	require.ErrorIs(t, err, dsp.ErrUnknownDeviceType)
	_, err = execute(t, cfgPath, "reference", "set", "monitor", "loud")
	require.Error(t, err)
	_, err = execute(t, cfgPath, "reference", "set", "monitor", "NaN")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, tempConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vumeter dev")
	assert.Contains(t, out, "SIMD:")
}
