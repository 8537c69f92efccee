package config

// File locations
const (
	DefaultConfigDir = ".config/go-vumeter"
	ConfigFileName   = "config.json"
)

// Backend names
const (
	BackendPulse = "pulse"
	BackendWAV   = "wav"
)

// Defaults
const (
	defaultPreset     = "wide"
	defaultSampleRate = 48000
	defaultChannels   = 2
	defaultFragmentMs = 10

	maxFragmentMs = 1000
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)
