package capture

import "time"

// Device naming
const (
	monitorSuffix = ".monitor"

	defaultMonitorID    = "[default monitor]"
	defaultMicrophoneID = "[default microphone]"
)

// Session defaults
const (
	defaultSampleRate     = 48000
	defaultChannels       = 2
	defaultFragmentSize   = 10 * time.Millisecond
	defaultConnectTimeout = 10 * time.Second

	maxChannels     = 32
	maxFragmentSize = time.Second
)
