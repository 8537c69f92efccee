// Package testutil provides reusable test helpers and signal generators for
// meter tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-vumeter/internal/simdops"
)

// Default tolerances for various test scenarios.
const (
	DBTolerance    = 0.01
	AngleTolerance = 1e-4
)

const stereoChannels = 2

// AssertNoNaNOrInf verifies that no value is NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(f, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float32, minVal, maxVal float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if !(v >= minVal && v <= maxVal) {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertMonotonic verifies that a slice never decreases.
func AssertMonotonic(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return assert.Fail(t, "not monotonic",
				"s[%d]=%f < s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float32, msgAndArgs ...any) bool {
	t.Helper()
	if !(value >= minVal && value <= maxVal) {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// Sine returns frames samples of a sine at freq Hz.
func Sine(frames int, amplitude, freq, sampleRate float64) []float32 {
	out := make([]float32, frames)
	w := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(w*float64(i)))
	}
	return out
}

// Constant returns frames samples of value v.
func Constant(frames int, v float32) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = v
	}
	return out
}

// Interleave packs two equal-length channels into one stereo buffer.
func Interleave(left, right []float32) []float32 {
	n := min(len(left), len(right))
	out := make([]float32, n*stereoChannels)
	simdops.Float32Ops().Interleave2(out, left[:n], right[:n])
	return out
}

// StereoSine returns an interleaved stereo buffer with independent amplitudes.
func StereoSine(frames int, ampL, ampR, freq, sampleRate float64) []float32 {
	return Interleave(Sine(frames, ampL, freq, sampleRate), Sine(frames, ampR, freq, sampleRate))
}

// StereoConstant returns an interleaved stereo buffer of v on both channels.
func StereoConstant(frames int, v float32) []float32 {
	return Constant(frames*stereoChannels, v)
}

// Silence returns frames*channels zero samples.
func Silence(frames, channels int) []float32 {
	return make([]float32, frames*channels)
}
