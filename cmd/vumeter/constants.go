package main

import "time"

const (
	debugLogFile = "vumeter-debug.log"
	logFilePerm  = 0o644

	listTimeout = 10 * time.Second

	defaultFragmentMs = 10
)

// Device listing text
const (
	defaultMarker = "   [DEFAULT]"
	usageText     = `
Usage:
  --device-type monitor      Use system output (sink monitor)
  --device-type microphone   Use microphone input (source)
  --device <name>            Use a specific source
`
)
