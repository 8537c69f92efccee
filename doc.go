// Package vumeter provides the signal path of an analog VU meter in pure Go.
//
// A VU meter shows the average loudness of a signal with a needle that
// rises in about 300 ms and falls a little slower. This package turns
// interleaved float32 PCM into such needle readings, in VU dB relative to a
// configurable 0 VU reference, and maps readings to needle angles on a meter
// face.
//
// # Features
//
//   - Pre-emphasized RMS with a 20 ms VU integrator and noise gating
//   - Per-device-type 0 VU references (-14 dBFS for system output monitors,
//     0 dBFS for microphones) with a user override
//   - Asymmetric needle ballistics derived from per-frame needle mobility
//   - Piecewise-linear VU to angle mapping for hand-calibrated meter faces
//   - Allocation-free processing, safe to run inside an audio callback
//
// # Quick Start
//
// Feed every buffer your audio callback receives to a [Meter]:
//
//	m, err := vumeter.New(vumeter.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// In the audio callback
//	vuL, vuR := m.Process(samples)
//
//	// In the render loop
//	angleL, angleR := m.Angles()
//
// # Reference Levels
//
// Mastered playback is far louder than a live microphone, so a monitor
// source reads 0 VU at -14 dBFS while a microphone reads 0 VU at full scale.
// [Config.DeviceType] picks the default; set [Config.Override] together with
// [Config.ReferenceDbfs] to use another level.
//
// # Display Ranges
//
// Readings are clamped to the meter range. [RangeWide] (-96 to +6 VU) keeps
// the needle meaningful for quiet sources, [RangeClassic] (-22 to +3 VU)
// matches a traditional meter face.
//
// # Live Capture
//
// The vumeter command runs the same signal path against a PulseAudio or
// PipeWire-Pulse source, or a WAV file, and draws the needles in the
// terminal. See cmd/vumeter.
//
// # Thread Safety
//
// A [Meter] is not safe for concurrent use. Call [Meter.Process] from one
// goroutine, typically the audio callback, and hand the readings to other
// goroutines yourself.
package vumeter
