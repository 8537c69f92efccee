package pulse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
)

// commandRunner runs a short-lived command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// pactl localizes its labels.
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// serverInfo is the subset of `pactl info` the backend needs.
type serverInfo struct {
	DefaultSink   string
	DefaultSource string
}

// defaultMonitor is the monitor source of the default sink.
func (i serverInfo) defaultMonitor() string {
	if i.DefaultSink == "" {
		return ""
	}
	return i.DefaultSink + monitorSuffix
}

func parseInfo(out []byte) serverInfo {
	var info serverInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Default Sink":
			info.DefaultSink = strings.TrimSpace(value)
		case "Default Source":
			info.DefaultSource = strings.TrimSpace(value)
		}
	}
	return info
}

// parseShortSources parses `pactl list short sources`:
//
//	index<TAB>name<TAB>driver<TAB>sample spec<TAB>state
func parseShortSources(out []byte) []capture.DeviceInfo {
	var devices []capture.DeviceInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < shortSourceMinFields {
			continue
		}
		name := strings.TrimSpace(fields[1])
		if name == "" {
			continue
		}

		kind := dsp.DeviceMicrophone
		if strings.HasSuffix(name, monitorSuffix) {
			kind = dsp.DeviceMonitor
		}

		channels := 0
		if len(fields) > shortSourceSpecField {
			channels = parseChannels(fields[shortSourceSpecField])
		}

		devices = append(devices, capture.DeviceInfo{
			Name:     name,
			ID:       name,
			Channels: channels,
			Kind:     kind,
		})
	}
	return devices
}

// parseChannels extracts N from a sample spec such as "s16le 2ch 44100Hz".
func parseChannels(spec string) int {
	for _, f := range strings.Fields(spec) {
		if n, ok := strings.CutSuffix(f, "ch"); ok {
			if v, err := strconv.Atoi(n); err == nil {
				return v
			}
		}
	}
	return 0
}

// markDefault flags the default device. The default sink's monitor wins;
// the default source is only marked when that monitor is not listed.
func markDefault(devices []capture.DeviceInfo, info serverInfo) {
	if mon := info.defaultMonitor(); mon != "" {
		for i := range devices {
			if devices[i].ID == mon {
				devices[i].IsDefault = true
				return
			}
		}
	}
	if info.DefaultSource == "" {
		return
	}
	for i := range devices {
		if devices[i].ID == info.DefaultSource {
			devices[i].IsDefault = true
			return
		}
	}
}
