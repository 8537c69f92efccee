package dsp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Configuration errors.
var (
	ErrInvalidRange      = errors.New("invalid meter range")
	ErrUnknownDeviceType = errors.New("unknown device type")
)

// DeviceType selects the built-in reference level.
type DeviceType int

const (
	// DeviceMonitor is system output captured through a monitor source.
	DeviceMonitor DeviceType = iota

	// DeviceMicrophone is a live input.
	DeviceMicrophone
)

// String returns the config file spelling of d.
func (d DeviceType) String() string {
	switch d {
	case DeviceMonitor:
		return "monitor"
	case DeviceMicrophone:
		return "microphone"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(d))
	}
}

// ParseDeviceType parses "monitor" or "microphone" (case-insensitive).
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monitor", "output", "system":
		return DeviceMonitor, nil
	case "microphone", "mic", "input":
		return DeviceMicrophone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDeviceType, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DeviceType) MarshalText() ([]byte, error) {
	switch d {
	case DeviceMonitor, DeviceMicrophone:
		return []byte(d.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDeviceType, int(d))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DeviceType) UnmarshalText(text []byte) error {
	v, err := ParseDeviceType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DefaultReferenceDbfs returns the built-in 0 VU reference for d.
// Mastered playback sits well above a live microphone signal.
func DefaultReferenceDbfs(d DeviceType) float64 {
	if d == DeviceMicrophone {
		return DefaultMicrophoneReferenceDbfs
	}
	return DefaultMonitorReferenceDbfs
}

// ReferenceOptions is the per-buffer reference snapshot.
type ReferenceOptions struct {
	// ReferenceDbfs is the level shown as 0 VU when Override is set.
	ReferenceDbfs float64

	// Override selects ReferenceDbfs over the device type default.
	Override bool

	DeviceType DeviceType
}

// EffectiveReferenceDbfs returns the reference in force for one buffer.
// A non-finite override value falls back to the device default.
func (r ReferenceOptions) EffectiveReferenceDbfs() float64 {
	if r.Override && !math.IsNaN(r.ReferenceDbfs) && !math.IsInf(r.ReferenceDbfs, 0) {
		return r.ReferenceDbfs
	}
	return DefaultReferenceDbfs(r.DeviceType)
}

// State is the signal path memory of one capture session.
// The zero value is the cold, at-rest state.
type State struct {
	PrevL, PrevR           float32 // last raw sample per channel
	RmsLSmooth, RmsRSmooth float32 // smoothed power, never negative
	MeterAwake             bool
}

// Reset returns s to the cold state.
func (s *State) Reset() {
	*s = State{}
}

// Range is the physical display range of a meter in VU dB.
type Range struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// Display range presets.
var (
	// RangeWide is the extended floor/ceiling of the Linux build.
	RangeWide = Range{Min: -96, Max: 6}

	// RangeClassic is the scale of a traditional VU face.
	RangeClassic = Range{Min: -22, Max: 3}
)

// Validate checks that the range is finite and non-empty.
func (r Range) Validate() error {
	lo, hi := float64(r.Min), float64(r.Max)
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if !(r.Min < r.Max) {
		return fmt.Errorf("%w: min %v must be below max %v", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Clamp limits v to the range. NaN maps to Min.
func (r Range) Clamp(v float32) float32 {
	return clamp(v, r.Min, r.Max)
}

// RangePreset looks up a named range ("wide" or "classic").
func RangePreset(name string) (Range, bool) {
	switch strings.ToLower(name) {
	case "wide", "linux":
		return RangeWide, true
	case "classic", "macos":
		return RangeClassic, true
	}
	return Range{}, false
}
