// Package dsp converts interleaved float PCM into ballistics-smoothed VU
// readings.
//
// ProcessBuffer is the whole signal path for one delivered buffer:
// pre-emphasis, per-buffer RMS, VU integration, noise gating, dBFS
// conversion, reference normalization, the wake snap and the needle
// ballistics. It touches only the State and integrators it is given and does
// not allocate, so it can run directly in an audio callback.
package dsp

import "math"

// Integrator is a needle model driven once per buffer.
// *ballistics.Ballistics satisfies it.
type Integrator interface {
	Reset(v float32)
	Process(target, dt float32) float32
}

// ProcessBuffer runs one buffer through the meter and returns the left and
// right readings in VU dB, clamped to [minVu, maxVu].
//
// Malformed input (no data, no frames, no channels, a sample rate that is not
// positive, or a missing state or integrator) returns (minVu, minVu) without
// touching any state. Mono input drives both channels.
func ProcessBuffer(
	data []float32,
	frames, channels int,
	sampleRate float32,
	ref ReferenceOptions,
	left, right Integrator,
	state *State,
	minVu, maxVu float32,
) (vuL, vuR float32) {
	if len(data) == 0 || frames <= 0 || channels <= 0 || !(sampleRate > 0) ||
		state == nil || left == nil || right == nil {
		return minVu, minVu
	}
	if complete := len(data) / channels; frames > complete {
		frames = complete
	}
	if frames == 0 {
		return minVu, minVu
	}

	sumL, sumR := emphasizedPower(data, frames, channels, state)
	rmsL := bufferRMS(sumL, frames)
	rmsR := bufferRMS(sumR, frames)

	dt := min(float32(frames)/sampleRate, maxStep)
	alpha := float32(math.Exp(-float64(dt) / integrationTau))

	levelL := integrate(&state.RmsLSmooth, rmsL, alpha)
	levelR := integrate(&state.RmsRSmooth, rmsR, alpha)

	refDbfs := ref.EffectiveReferenceDbfs()
	targetL := float32(toDbfs(levelL) - refDbfs)
	targetR := float32(toDbfs(levelR) - refDbfs)

	if !state.MeterAwake && (levelL > wakeThreshold || levelR > wakeThreshold) {
		left.Reset(targetL)
		right.Reset(targetR)
		state.MeterAwake = true
	}

	vuL = clamp(left.Process(targetL, dt), minVu, maxVu)
	vuR = clamp(right.Process(targetR, dt), minVu, maxVu)
	return vuL, vuR
}

// emphasizedPower returns the per-channel sum of squares of the
// pre-emphasized samples and carries the last raw samples in state.
func emphasizedPower(data []float32, frames, channels int, state *State) (sumL, sumR float64) {
	prevL, prevR := state.PrevL, state.PrevR

	for i := range frames {
		base := i * channels
		rawL := data[base]
		rawR := rawL
		if channels > 1 {
			rawR = data[base+1]
		}

		eL := float64(rawL + preEmphasis*(rawL-prevL))
		eR := float64(rawR + preEmphasis*(rawR-prevR))
		sumL += eL * eL
		sumR += eR * eR

		prevL, prevR = rawL, rawR
	}

	state.PrevL = finiteOrZero(prevL)
	state.PrevR = finiteOrZero(prevR)
	return sumL, sumR
}

// bufferRMS returns sqrt(sum/frames). NaN power reads as silence and the
// result is capped at maxBufferRMS.
func bufferRMS(sum float64, frames int) float32 {
	ms := sum / float64(frames)
	switch {
	case ms != ms:
		return 0
	case ms >= maxBufferRMS*maxBufferRMS:
		return maxBufferRMS
	}
	return float32(math.Sqrt(ms))
}

// integrate re-seeds or smooths one channel's power and returns the gated
// linear level.
func integrate(smooth *float32, rms, alpha float32) float32 {
	power := rms * rms
	if rms > wakeThreshold {
		*smooth = power
	}
	*smooth = alpha*(*smooth) + (1-alpha)*power

	level := float32(math.Sqrt(float64(*smooth)))
	if level < noiseFloor {
		level = 0
	}
	return level
}

func toDbfs(level float32) float64 {
	return dbPerDecade * math.Log10(math.Max(float64(level), logEpsilon))
}

func clamp(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finiteOrZero(v float32) float32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return v
}
