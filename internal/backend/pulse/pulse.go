// Package pulse captures from a PulseAudio or PipeWire-Pulse server through
// the pactl and parec command line tools.
package pulse

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tphakala/go-vumeter/internal/capture"
)

// recorder is a running capture process streaming float32le PCM.
type recorder interface {
	io.Reader
	Interrupt() error
	Kill() error
	Wait() error
}

type recorderStarter func(args []string) (recorder, error)

// Backend implements capture.Backend.
type Backend struct {
	run   commandRunner
	start recorderStarter
}

// New returns a backend using the pactl and parec binaries on PATH.
func New() *Backend {
	return &Backend{run: runCommand, start: startParec}
}

// Name implements capture.Backend.
func (b *Backend) Name() string {
	return backendName
}

// Devices lists capture sources with the default one marked.
func (b *Backend) Devices(ctx context.Context) ([]capture.DeviceInfo, error) {
	out, err := b.run(ctx, pactlBinary, "list", "short", "sources")
	if err != nil {
		return nil, err
	}
	devices := parseShortSources(out)

	// Default marking is cosmetic; a failing `pactl info` still lists.
	if infoOut, err := b.run(ctx, pactlBinary, "info"); err == nil {
		markDefault(devices, parseInfo(infoOut))
	}
	return devices, nil
}

// Open starts parec on the device src resolves to.
func (b *Backend) Open(ctx context.Context, src capture.Source, cfg capture.StreamConfig, deliver func(capture.Buffer)) (capture.Stream, error) {
	device, err := b.resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := b.start(parecArgs(device, cfg))
	if err != nil {
		return nil, err
	}

	id := ""
	if !src.IsDefault() {
		id = device
	}
	s := newStream(id, rec, cfg, deliver)
	go s.run()
	return s, nil
}

// resolve maps a Source onto a server device name.
func (b *Backend) resolve(ctx context.Context, src capture.Source) (string, error) {
	switch src.Kind {
	case capture.MonitorDefault, capture.MicrophoneDefault:
		info := serverInfo{}
		if out, err := b.run(ctx, pactlBinary, "info"); err == nil {
			info = parseInfo(out)
		}
		if src.Kind == capture.MonitorDefault {
			if mon := info.defaultMonitor(); mon != "" {
				return mon, nil
			}
			return defaultMonitorAlias, nil
		}
		if info.DefaultSource != "" {
			return info.DefaultSource, nil
		}
		return defaultSourceAlias, nil
	}

	devices, err := b.Devices(ctx)
	if err != nil {
		return "", err
	}
	if !slices.ContainsFunc(devices, func(d capture.DeviceInfo) bool { return d.ID == src.Name }) {
		return "", fmt.Errorf("%w: %s", capture.ErrDeviceNotFound, src.Name)
	}
	return src.Name, nil
}

func parecArgs(device string, cfg capture.StreamConfig) []string {
	return []string{
		"--device=" + device,
		"--client-name=" + clientName,
		"--format=float32le",
		"--rate=" + strconv.Itoa(cfg.SampleRate),
		"--channels=" + strconv.Itoa(cfg.Channels),
		"--latency-msec=" + strconv.FormatInt(max(1, cfg.Fragment.Milliseconds()), 10),
		"--raw",
	}
}

// execRecorder is parec run through os/exec.
type execRecorder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *strings.Builder

	waitOnce sync.Once
	waitErr  error
}

func startParec(args []string) (recorder, error) {
	cmd := exec.Command(parecBinary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr := &strings.Builder{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", parecBinary, err)
	}
	return &execRecorder{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func (r *execRecorder) Read(p []byte) (int, error) {
	return r.stdout.Read(p)
}

// Interrupt asks parec to exit, as Ctrl-C would.
func (r *execRecorder) Interrupt() error {
	if err := r.cmd.Process.Signal(syscall.SIGINT); err != nil {
		return r.cmd.Process.Kill()
	}
	return nil
}

func (r *execRecorder) Kill() error {
	return r.cmd.Process.Kill()
}

func (r *execRecorder) Wait() error {
	r.waitOnce.Do(func() {
		if err := r.cmd.Wait(); err != nil {
			r.waitErr = fmt.Errorf("%s failed: %w, stderr: %s", parecBinary, err, strings.TrimSpace(r.stderr.String()))
		}
	})
	return r.waitErr
}

// stream reads fixed fragments from a recorder and delivers them.
type stream struct {
	id      string
	rec     recorder
	deliver func(capture.Buffer)

	frames   int
	channels int
	rate     float32
	raw      []byte
	samples  []float32

	done      chan struct{}
	closing   atomic.Bool
	closeOnce sync.Once
	err       error // written before done is closed
}

func newStream(id string, rec recorder, cfg capture.StreamConfig, deliver func(capture.Buffer)) *stream {
	frames := cfg.FragmentFrames()
	n := frames * cfg.Channels
	return &stream{
		id:       id,
		rec:      rec,
		deliver:  deliver,
		frames:   frames,
		channels: cfg.Channels,
		rate:     float32(cfg.SampleRate),
		raw:      make([]byte, n*bytesPerSample),
		samples:  make([]float32, n),
		done:     make(chan struct{}),
	}
}

func (s *stream) run() {
	defer close(s.done)

	for {
		if _, err := io.ReadFull(s.rec, s.raw); err != nil {
			waitErr := s.rec.Wait()
			if s.closing.Load() {
				return
			}
			switch {
			case waitErr != nil:
				s.err = waitErr
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				s.err = fmt.Errorf("%w: %s exited", capture.ErrStreamEnded, parecBinary)
			default:
				s.err = fmt.Errorf("failed to read audio data: %w", err)
			}
			return
		}

		decodeFloat32LE(s.samples, s.raw)
		s.deliver(capture.Buffer{
			Data:       s.samples,
			Frames:     s.frames,
			Channels:   s.channels,
			SampleRate: s.rate,
		})
	}
}

func (s *stream) DeviceID() string { return s.id }

func (s *stream) Done() <-chan struct{} { return s.done }

func (s *stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close interrupts parec, killing it if it does not exit in time, and waits
// for the reader goroutine.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		err = s.rec.Interrupt()

		timer := time.NewTimer(killTimeout)
		defer timer.Stop()
		select {
		case <-s.done:
		case <-timer.C:
			_ = s.rec.Kill()
		}
	})
	<-s.done
	return err
}

func decodeFloat32LE(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*bytesPerSample:]))
	}
}
