package vumeter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-vumeter/internal/ballistics"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/scale"
)

// Common errors.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid meter configuration")
)

type (
	// DeviceType selects the default 0 VU reference.
	DeviceType = dsp.DeviceType

	// Range is the display floor and ceiling in VU dB.
	Range = dsp.Range

	// ScalePoint is one (level, angle) calibration point.
	ScalePoint = scale.Point

	// ScaleTable maps VU dB to needle degrees, sorted by level.
	ScaleTable = scale.Table

	// Calibration holds the marks and needle mobility of a meter face.
	Calibration = scale.Calibration

	// BallisticsConfig holds the needle time constants.
	BallisticsConfig = ballistics.Config
)

// Device types.
const (
	DeviceMonitor    = dsp.DeviceMonitor
	DeviceMicrophone = dsp.DeviceMicrophone
)

// Display ranges.
var (
	RangeWide    = dsp.RangeWide
	RangeClassic = dsp.RangeClassic
)

// Config holds meter configuration.
type Config struct {
	// SampleRate of the input in Hz.
	SampleRate float64

	// Channels in the interleaved input. Mono drives both needles; channels
	// after the second are ignored.
	Channels int

	DeviceType DeviceType

	// ReferenceDbfs is shown as 0 VU when Override is set.
	ReferenceDbfs float64
	Override      bool

	Range      Range
	Ballistics BallisticsConfig

	// Table maps readings to angles. Nil uses the stock meter face.
	Table ScaleTable
}

// DefaultConfig returns a configuration for a 48 kHz stereo monitor source.
func DefaultConfig() *Config {
	return &Config{
		SampleRate: defaultSampleRate,
		Channels:   defaultChannels,
		DeviceType: DeviceMonitor,
		Range:      RangeWide,
		Ballistics: ballistics.DefaultConfig(),
	}
}

// ConfigFromCalibration returns the default configuration with the scale
// table and ballistics of a calibrated meter face.
func ConfigFromCalibration(c Calibration) (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg := DefaultConfig()
	cfg.Table = c.Table()
	cfg.Ballistics = c.Ballistics()
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, maxChannels, c.Channels)
	}
	if err := c.Range.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Ballistics.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Table != nil {
		if err := c.Table.Validate(scale.MinSchemaPoints); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Meter is a stereo VU meter fed from one audio stream.
type Meter struct {
	cfg         Config
	ref         dsp.ReferenceOptions
	state       dsp.State
	left, right *ballistics.Ballistics
	vuL, vuR    float32
}

// New creates a meter at rest on the range floor.
func New(config *Config) (*Meter, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := *config
	if cfg.Table == nil {
		cfg.Table = scale.DefaultTable()
	}

	m := &Meter{
		cfg: cfg,
		ref: dsp.ReferenceOptions{
			ReferenceDbfs: cfg.ReferenceDbfs,
			Override:      cfg.Override,
			DeviceType:    cfg.DeviceType,
		},
		left:  ballistics.New(cfg.Range.Min, cfg.Ballistics),
		right: ballistics.New(cfg.Range.Min, cfg.Ballistics),
	}
	m.Reset()
	return m, nil
}

// Process runs one interleaved buffer through the meter and returns the new
// readings in VU dB. A trailing partial frame is ignored.
func (m *Meter) Process(samples []float32) (vuL, vuR float32) {
	frames := len(samples) / m.cfg.Channels
	m.vuL, m.vuR = dsp.ProcessBuffer(samples, frames, m.cfg.Channels, float32(m.cfg.SampleRate),
		m.ref, m.left, m.right, &m.state, m.cfg.Range.Min, m.cfg.Range.Max)
	return m.vuL, m.vuR
}

// Levels returns the last readings in VU dB.
func (m *Meter) Levels() (vuL, vuR float32) {
	return m.vuL, m.vuR
}

// Angles returns the needle angles in degrees for the last readings.
func (m *Meter) Angles() (left, right float32) {
	return m.cfg.Table.Angle(m.vuL), m.cfg.Table.Angle(m.vuR)
}

// ReferenceDbfs returns the level currently shown as 0 VU.
func (m *Meter) ReferenceDbfs() float64 {
	return m.ref.EffectiveReferenceDbfs()
}

// SetReference changes the reference. With override off the device type
// default applies and dbfs is only stored.
func (m *Meter) SetReference(dbfs float64, override bool) {
	m.ref.ReferenceDbfs = dbfs
	m.ref.Override = override
}

// SetDeviceType changes the device type and restarts the meter from rest,
// as a device switch does.
func (m *Meter) SetDeviceType(d DeviceType) {
	m.ref.DeviceType = d
	m.Reset()
}

// Range returns the display range.
func (m *Meter) Range() Range {
	return m.cfg.Range
}

// Reset returns the meter to rest on the range floor.
func (m *Meter) Reset() {
	m.state.Reset()
	m.left.Reset(m.cfg.Range.Min)
	m.right.Reset(m.cfg.Range.Min)
	m.vuL, m.vuR = m.cfg.Range.Min, m.cfg.Range.Min
}

// VuToAngleDeg maps a reading to a needle angle by linear interpolation in
// table, clamping outside the table.
func VuToAngleDeg(vuDb float32, table ScaleTable) float32 {
	return scale.VuToAngleDeg(vuDb, table)
}

// DefaultScaleTable returns the stock meter face table.
func DefaultScaleTable() ScaleTable {
	return scale.DefaultTable()
}

// DefaultCalibration returns the stock meter face calibration.
func DefaultCalibration() Calibration {
	return scale.DefaultCalibration()
}

// NormalizeScaleTable drops non-finite points and sorts by level.
func NormalizeScaleTable(points []ScalePoint) (ScaleTable, error) {
	return scale.NormalizeTable(points)
}

// DefaultReferenceDbfs returns the built-in 0 VU reference for d.
func DefaultReferenceDbfs(d DeviceType) float64 {
	return dsp.DefaultReferenceDbfs(d)
}
