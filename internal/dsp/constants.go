package dsp

// Signal path constants
const (
	preEmphasis = 0.15 // first-difference transient boost

	wakeThreshold = 0.002 // linear RMS, about -54 dBFS
	noiseFloor    = 0.001 // linear RMS, about -60 dBFS

	integrationTau = 0.020 // VU integration window, seconds
	maxStep        = 0.050 // per-buffer dt ceiling, seconds

	logEpsilon  = 1e-12
	dbPerDecade = 20.0
)

// Non-finite input guards
const (
	// maxBufferRMS caps the per-buffer RMS (+120 dBFS) so the float32
	// smoothing state cannot overflow.
	maxBufferRMS = 1e6
)

// Default reference levels in dBFS
const (
	DefaultMicrophoneReferenceDbfs = 0.0
	DefaultMonitorReferenceDbfs    = -14.0
)
