// Package capture runs a meter against a live audio backend.
//
// A Session owns the DSP state and the two needle integrators of one meter.
// The backend delivers buffers on its own goroutine; the session runs them
// through dsp.ProcessBuffer and publishes the readings through atomics, so
// any number of readers can poll LeftVuDb and RightVuDb without locking.
// Start, Stop and SwitchDevice are serialized and always join the delivery
// goroutine before the state it uses is reset.
package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/go-vumeter/internal/ballistics"
	"github.com/tphakala/go-vumeter/internal/dsp"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds session configuration.
type Config struct {
	// Device is the initial device name; empty selects the default.
	Device string

	// DeviceType picks the default device kind when Device is empty.
	DeviceType dsp.DeviceType

	// SampleRate and Channels are requested from the backend.
	SampleRate int
	Channels   int

	// FragmentSize is the requested delivery period.
	FragmentSize time.Duration

	// Range is the meter display floor and ceiling.
	Range dsp.Range

	Ballistics ballistics.Config

	// ConnectTimeout bounds the backend connection phase of Start.
	ConnectTimeout time.Duration

	// OnDeviceChanged is called after a successful SwitchDevice.
	OnDeviceChanged func(id string)

	// OnError is called when opening fails or a running stream stops on its
	// own. The session is stopped by then and does not retry.
	OnError func(err error)
}

// DefaultConfig returns a config for the default monitor at 48 kHz stereo.
func DefaultConfig() Config {
	return Config{
		DeviceType:     dsp.DeviceMonitor,
		SampleRate:     defaultSampleRate,
		Channels:       defaultChannels,
		FragmentSize:   defaultFragmentSize,
		Range:          dsp.RangeWide,
		Ballistics:     ballistics.DefaultConfig(),
		ConnectTimeout: defaultConnectTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, maxChannels, c.Channels)
	}
	if c.FragmentSize <= 0 || c.FragmentSize > maxFragmentSize {
		return fmt.Errorf("%w: fragment size %v out of range", ErrInvalidConfig, c.FragmentSize)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: negative connect timeout", ErrInvalidConfig)
	}
	if err := c.Range.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Ballistics.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Session is one meter bound to one backend.
type Session struct {
	backend Backend
	store   ReferenceStore
	cfg     Config

	// mu serializes Start, Stop and SwitchDevice.
	mu     sync.Mutex
	stream Stream
	device string

	state      atomic.Int32
	deviceType atomic.Int32
	deviceID   atomic.Pointer[string]

	settingsMu sync.Mutex
	settings   atomic.Pointer[ReferenceLevels]

	vuL, vuR atomic.Uint32

	// Owned by the delivery goroutine while a stream runs.
	dspState    dsp.State
	left, right *ballistics.Ballistics
}

// NewSession creates a stopped session. A nil store keeps reference levels
// in memory only.
func NewSession(backend Backend, store ReferenceStore, cfg Config) (*Session, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore(DefaultReferenceLevels())
	}

	levels, err := store.LoadReferenceLevels()
	if err != nil {
		return nil, fmt.Errorf("failed to load reference levels: %w", err)
	}

	s := &Session{
		backend: backend,
		store:   store,
		cfg:     cfg,
		device:  cfg.Device,
		left:    ballistics.New(cfg.Range.Min, cfg.Ballistics),
		right:   ballistics.New(cfg.Range.Min, cfg.Ballistics),
	}
	s.settings.Store(&levels)

	src := ResolveSource(cfg.Device, cfg.DeviceType)
	s.deviceType.Store(int32(src.DeviceType()))
	id := src.DefaultID()
	s.deviceID.Store(&id)
	s.publish(cfg.Range.Min, cfg.Range.Min)
	return s, nil
}

// Start connects to the configured device. Starting a running session is a
// no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	err := s.startLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		s.notifyError(err)
	}
	return err
}

// Stop halts delivery and waits for the backend goroutine to exit.
// Stopping a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// SwitchDevice stops the current stream, resets the meter and starts
// capturing from name. An empty name selects the default device of the
// configured type.
func (s *Session) SwitchDevice(ctx context.Context, name string) error {
	s.mu.Lock()
	s.stopLocked()
	s.device = name
	err := s.startLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		s.notifyError(err)
		return err
	}
	if s.cfg.OnDeviceChanged != nil {
		s.cfg.OnDeviceChanged(s.DeviceID())
	}
	return nil
}

func (s *Session) startLocked(ctx context.Context) error {
	if s.stream != nil {
		return nil
	}

	src := ResolveSource(s.device, s.cfg.DeviceType)
	s.deviceType.Store(int32(src.DeviceType()))
	s.resetMeter()
	s.state.Store(int32(StateStarting))

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	stream, err := s.backend.Open(connectCtx, src, s.streamConfig(), s.process)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to open %s on %s: %w", src, s.backend.Name(), err)
	}

	id := stream.DeviceID()
	if id == "" {
		id = src.DefaultID()
	}
	s.deviceID.Store(&id)
	s.stream = stream
	s.state.Store(int32(StateRunning))

	go s.watch(stream)
	return nil
}

func (s *Session) stopLocked() {
	if s.stream != nil {
		stream := s.stream
		s.stream = nil
		_ = stream.Close()
	}
	s.state.Store(int32(StateStopped))
	s.publish(s.cfg.Range.Min, s.cfg.Range.Min)
}

// watch turns an unrequested end of stream into a stopped session.
func (s *Session) watch(stream Stream) {
	<-stream.Done()

	s.mu.Lock()
	if s.stream != stream {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.mu.Unlock()

	err := stream.Err()
	switch {
	case err == nil, errors.Is(err, ErrStreamEnded):
		err = fmt.Errorf("%w: %s", ErrStreamEnded, s.DeviceID())
	case !errors.Is(err, ErrStreamFailed):
		err = fmt.Errorf("%w: %w", ErrStreamFailed, err)
	}
	s.notifyError(err)
}

// process is the delivery callback.
func (s *Session) process(b Buffer) {
	ref := s.settings.Load().Options(dsp.DeviceType(s.deviceType.Load()))
	vuL, vuR := dsp.ProcessBuffer(
		b.Data, b.Frames, b.Channels, b.SampleRate,
		ref, s.left, s.right, &s.dspState,
		s.cfg.Range.Min, s.cfg.Range.Max,
	)
	s.publish(vuL, vuR)
}

// resetMeter must only run while no stream is delivering.
func (s *Session) resetMeter() {
	s.dspState.Reset()
	s.left.Reset(s.cfg.Range.Min)
	s.right.Reset(s.cfg.Range.Min)
	s.publish(s.cfg.Range.Min, s.cfg.Range.Min)
}

func (s *Session) publish(vuL, vuR float32) {
	s.vuL.Store(math.Float32bits(vuL))
	s.vuR.Store(math.Float32bits(vuR))
}

func (s *Session) notifyError(err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

func (s *Session) streamConfig() StreamConfig {
	return StreamConfig{
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		Fragment:   s.cfg.FragmentSize,
	}
}

// LeftVuDb returns the latest left reading.
func (s *Session) LeftVuDb() float32 {
	return math.Float32frombits(s.vuL.Load())
}

// RightVuDb returns the latest right reading.
func (s *Session) RightVuDb() float32 {
	return math.Float32frombits(s.vuR.Load())
}

// Levels returns both readings. They may come from different buffers.
func (s *Session) Levels() (vuL, vuR float32) {
	return s.LeftVuDb(), s.RightVuDb()
}

// Range returns the display range.
func (s *Session) Range() dsp.Range {
	return s.cfg.Range
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// DeviceID returns the current device identifier.
func (s *Session) DeviceID() string {
	return *s.deviceID.Load()
}

// DeviceType returns the reference class of the current device.
func (s *Session) DeviceType() dsp.DeviceType {
	return dsp.DeviceType(s.deviceType.Load())
}

// Backend returns the backend name.
func (s *Session) Backend() string {
	return s.backend.Name()
}

// Devices lists the backend's capture devices.
func (s *Session) Devices(ctx context.Context) ([]DeviceInfo, error) {
	devices, err := s.backend.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s devices: %w", s.backend.Name(), err)
	}
	return devices, nil
}

// ReferenceLevels returns the stored reference settings.
func (s *Session) ReferenceLevels() ReferenceLevels {
	return *s.settings.Load()
}

// ReferenceDbfs returns the reference in force for the current device type.
func (s *Session) ReferenceDbfs() float64 {
	return s.settings.Load().Options(s.DeviceType()).EffectiveReferenceDbfs()
}

// SetReferenceDbfs sets the reference for the current device type and
// enables the override.
func (s *Session) SetReferenceDbfs(v float64) error {
	return s.setLevel(s.DeviceType(), v)
}

// MicrophoneReferenceDbfs returns the stored microphone reference.
func (s *Session) MicrophoneReferenceDbfs() float64 {
	return s.settings.Load().Microphone
}

// SetMicrophoneReferenceDbfs stores the microphone reference and enables
// the override.
func (s *Session) SetMicrophoneReferenceDbfs(v float64) error {
	return s.setLevel(dsp.DeviceMicrophone, v)
}

// MonitorReferenceDbfs returns the stored monitor reference.
func (s *Session) MonitorReferenceDbfs() float64 {
	return s.settings.Load().Monitor
}

// SetMonitorReferenceDbfs stores the monitor reference and enables the
// override.
func (s *Session) SetMonitorReferenceDbfs(v float64) error {
	return s.setLevel(dsp.DeviceMonitor, v)
}

// SetReferenceOverride switches between the stored and built-in references.
func (s *Session) SetReferenceOverride(on bool) error {
	return s.updateSettings(func(l ReferenceLevels) ReferenceLevels {
		l.Override = on
		return l
	})
}

// ReloadReferenceLevels re-reads the store and applies its levels without
// saving them back. Use it when another process changed the store.
func (s *Session) ReloadReferenceLevels() error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	levels, err := s.store.LoadReferenceLevels()
	if err != nil {
		return fmt.Errorf("failed to load reference levels: %w", err)
	}
	s.settings.Store(&levels)
	return nil
}

func (s *Session) setLevel(d dsp.DeviceType, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: reference level must be finite", ErrInvalidConfig)
	}
	return s.updateSettings(func(l ReferenceLevels) ReferenceLevels {
		l = l.With(d, v)
		l.Override = true
		return l
	})
}

// updateSettings publishes a new snapshot and persists it. The snapshot is
// applied even when saving fails.
func (s *Session) updateSettings(fn func(ReferenceLevels) ReferenceLevels) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	next := fn(*s.settings.Load())
	s.settings.Store(&next)

	if err := s.store.SaveReferenceLevels(next); err != nil {
		return fmt.Errorf("failed to save reference levels: %w", err)
	}
	return nil
}
