// Package ballistics models the inertia of an analog VU meter needle.
//
// A Ballistics value is a single-channel first-order integrator: every call to
// Process moves the displayed value toward a target with an exponential
// response whose time constant depends on the direction of travel. The decay
// factor is recomputed from the elapsed time on every call, so irregular
// callback cadence never accumulates drift.
package ballistics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig indicates invalid ballistics parameters.
var ErrInvalidConfig = errors.New("invalid ballistics configuration")

// Config holds the direction-dependent time constants, in seconds.
type Config struct {
	// AttackTau is used while the target is above the displayed value.
	AttackTau float64

	// ReleaseTau is used while the target is below the displayed value.
	ReleaseTau float64
}

// DefaultConfig returns the time constants derived from the default meter
// calibration mobilities.
func DefaultConfig() Config {
	return FromMobility(defaultMobilityPositive, defaultMobilityNegative)
}

// FromMobility converts skin mobility values into time constants.
//
// A mobility is the fraction of the remaining distance the needle covers in
// one UI frame of 1/60 s. Values outside (0, 1) fall back to the defaults.
func FromMobility(positive, negative float64) Config {
	return Config{
		AttackTau:  mobilityToTau(positive, defaultMobilityPositive),
		ReleaseTau: mobilityToTau(negative, defaultMobilityNegative),
	}
}

func mobilityToTau(m, fallback float64) float64 {
	if !(m > 0 && m < 1) {
		m = fallback
	}
	return -mobilityFramePeriod / math.Log(1-m)
}

// Validate checks that both time constants are positive and finite.
func (c Config) Validate() error {
	if !(c.AttackTau > 0) || math.IsInf(c.AttackTau, 0) {
		return fmt.Errorf("%w: attack time constant must be positive", ErrInvalidConfig)
	}
	if !(c.ReleaseTau > 0) || math.IsInf(c.ReleaseTau, 0) {
		return fmt.Errorf("%w: release time constant must be positive", ErrInvalidConfig)
	}
	return nil
}

// Ballistics is the needle integrator for one meter channel.
// It is not safe for concurrent use; the capture session owns one per channel.
type Ballistics struct {
	value   float32
	attack  float64
	release float64
}

// New creates an integrator resting at initial.
// An invalid cfg is replaced by DefaultConfig.
func New(initial float32, cfg Config) *Ballistics {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Ballistics{
		value:   initial,
		attack:  cfg.AttackTau,
		release: cfg.ReleaseTau,
	}
}

// Reset moves the needle to v instantly.
func (b *Ballistics) Reset(v float32) {
	b.value = v
}

// Process advances the needle toward target over dt seconds and returns the
// new displayed value. A non-positive dt or a NaN target leaves it unchanged.
func (b *Ballistics) Process(target, dt float32) float32 {
	if !(dt > 0) || target != target {
		return b.value
	}

	tau := b.release
	if target > b.value {
		tau = b.attack
	}

	alpha := float32(math.Exp(-float64(dt) / tau))
	b.value = target + (b.value-target)*alpha
	return b.value
}

// Value returns the currently displayed value.
func (b *Ballistics) Value() float32 {
	return b.value
}

// Config returns the time constants in use.
func (b *Ballistics) Config() Config {
	return Config{AttackTau: b.attack, ReleaseTau: b.release}
}
