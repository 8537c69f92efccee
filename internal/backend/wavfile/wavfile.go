// Package wavfile is a capture backend that plays WAV files as devices.
//
// Each configured file appears as one capture device. Names ending in
// ".monitor" are presented as monitor sources, everything else as
// microphones, so file playback exercises the same reference handling as a
// live server.
package wavfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/wavio"
)

// ErrNoSources indicates a backend without any files.
var ErrNoSources = errors.New("no WAV sources configured")

// Source maps a device name to a file.
type Source struct {
	Name string
	Path string
}

// ParseSource parses "name=path". A bare path is named after itself.
func ParseSource(s string) (Source, error) {
	name, path, ok := strings.Cut(s, "=")
	if !ok {
		path = name
	}
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if name == "" || path == "" {
		return Source{}, fmt.Errorf("invalid WAV source %q, want name=path", s)
	}
	return Source{Name: name, Path: path}, nil
}

// Options controls playback.
type Options struct {
	// Loop restarts each file at its end instead of ending the stream.
	Loop bool

	// Realtime paces delivery at the file's sample rate. Without it
	// fragments are delivered as fast as they decode.
	Realtime bool
}

// Backend implements capture.Backend over a fixed list of files.
type Backend struct {
	sources []Source
	opts    Options
}

// New creates a backend. The first source is the default device.
func New(sources []Source, opts Options) (*Backend, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	return &Backend{sources: sources, opts: opts}, nil
}

// Name implements capture.Backend.
func (b *Backend) Name() string {
	return backendName
}

// Devices describes every configured file. Unreadable files are reported
// with zero channels rather than failing the listing.
func (b *Backend) Devices(ctx context.Context) ([]capture.DeviceInfo, error) {
	devices := make([]capture.DeviceInfo, 0, len(b.sources))
	def := b.defaultFor(dsp.DeviceMonitor)
	for _, src := range b.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := capture.DeviceInfo{
			Name:      src.Name,
			ID:        src.Path,
			IsDefault: src == def,
			Kind:      kindOf(src.Name),
		}
		if r, err := wavio.Open(src.Path); err == nil {
			info.Channels = r.Info().Channels
			_ = r.Close()
		}
		devices = append(devices, info)
	}
	return devices, nil
}

// Open starts playback of the file src selects.
func (b *Backend) Open(ctx context.Context, src capture.Source, cfg capture.StreamConfig, deliver func(capture.Buffer)) (capture.Stream, error) {
	file, err := b.lookup(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := wavio.Open(file.Path)
	if err != nil {
		return nil, err
	}

	id := ""
	if !src.IsDefault() {
		id = file.Name
	}
	s := newStream(id, r, cfg.Fragment, b.opts, deliver)
	go s.run()
	return s, nil
}

func (b *Backend) lookup(src capture.Source) (Source, error) {
	if src.IsDefault() {
		return b.defaultFor(src.DeviceType()), nil
	}
	for _, s := range b.sources {
		if s.Name == src.Name {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%w: %s", capture.ErrDeviceNotFound, src.Name)
}

// defaultFor returns the first source of kind d, or the first source.
func (b *Backend) defaultFor(d dsp.DeviceType) Source {
	for _, s := range b.sources {
		if kindOf(s.Name) == d {
			return s
		}
	}
	return b.sources[0]
}

func kindOf(name string) dsp.DeviceType {
	if strings.HasSuffix(name, monitorSuffix) {
		return dsp.DeviceMonitor
	}
	return dsp.DeviceMicrophone
}

// stream decodes fragments on its own goroutine.
type stream struct {
	id      string
	reader  *wavio.Reader
	opts    Options
	deliver func(capture.Buffer)

	frames  int
	period  time.Duration
	samples []float32

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	err       error // written before done is closed
}

func newStream(id string, r *wavio.Reader, fragment time.Duration, opts Options, deliver func(capture.Buffer)) *stream {
	info := r.Info()
	frames := capture.StreamConfig{SampleRate: info.SampleRate, Fragment: fragment}.FragmentFrames()
	return &stream{
		id:      id,
		reader:  r,
		opts:    opts,
		deliver: deliver,
		frames:  frames,
		period:  time.Duration(frames) * time.Second / time.Duration(info.SampleRate),
		samples: make([]float32, frames*info.Channels),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *stream) run() {
	defer close(s.done)
	defer func() { _ = s.reader.Close() }()

	var tick <-chan time.Time
	if s.opts.Realtime {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()
		tick = ticker.C
	}

	info := s.reader.Info()
	played := false
	for {
		if tick != nil {
			select {
			case <-s.quit:
				return
			case <-tick:
			}
		} else {
			select {
			case <-s.quit:
				return
			default:
			}
		}

		frames, err := s.reader.Read(s.samples)
		if errors.Is(err, io.EOF) {
			// An empty data chunk would spin forever when looping.
			if !s.opts.Loop || !played {
				return
			}
			if err := s.reader.Rewind(); err != nil {
				s.err = err
				return
			}
			played = false
			continue
		}
		if err != nil {
			s.err = err
			return
		}
		played = true

		s.deliver(capture.Buffer{
			Data:       s.samples[:frames*info.Channels],
			Frames:     frames,
			Channels:   info.Channels,
			SampleRate: float32(info.SampleRate),
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

func (s *stream) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
	return nil
}
