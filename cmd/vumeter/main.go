// Command vumeter shows a stereo VU meter for a sound server source or a WAV
// file, and analyzes recordings offline with the same signal path.
//
// Usage:
//
//	vumeter                                  # meter on the default monitor
//	vumeter --device-type microphone         # meter on the default microphone
//	vumeter --device alsa_input.usb-mic      # meter on a named source
//	vumeter --backend wav --wav music.monitor=song.wav --loop
//	vumeter devices [--json]
//	vumeter analyze recording.wav
//	vumeter reference set monitor -18
package main

import (
	"fmt"
	"os"
)

// version is set via ldflags during build.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
