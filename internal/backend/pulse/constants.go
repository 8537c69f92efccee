package pulse

import "time"

const (
	backendName = "pulse"

	pactlBinary = "pactl"
	parecBinary = "parec"
	clientName  = "go-vumeter"

	monitorSuffix = ".monitor"

	// Fallback device names understood by the sound server.
	defaultMonitorAlias = "@DEFAULT_MONITOR@"
	defaultSourceAlias  = "@DEFAULT_SOURCE@"
)

// `pactl list short sources` columns
const (
	shortSourceMinFields = 2
	shortSourceSpecField = 3
)

const (
	bytesPerSample = 4 // float32le

	// killTimeout is how long Close waits after SIGINT before killing parec.
	killTimeout = 2 * time.Second
)
