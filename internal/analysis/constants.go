package analysis

import "time"

const (
	defaultFragment = 10 * time.Millisecond

	// Percentiles reported for each channel.
	medianQuantile = 0.5
	upperQuantile  = 0.95

	silenceDbfs = -240.0 // dBFS reported for digital silence
)
