package vumeter

// Defaults
const (
	defaultSampleRate = 48000
	defaultChannels   = 2

	maxChannels = 32
)
