package capture

import (
	"fmt"
	"strings"

	"github.com/tphakala/go-vumeter/internal/dsp"
)

// SourceKind selects how a backend looks up its capture device.
type SourceKind int

const (
	// MonitorDefault captures the monitor of the default output.
	MonitorDefault SourceKind = iota

	// MonitorByName captures a named monitor source.
	MonitorByName

	// MicrophoneDefault captures the default input.
	MicrophoneDefault

	// MicrophoneByName captures a named input.
	MicrophoneByName
)

// String returns a short name for the kind.
func (k SourceKind) String() string {
	switch k {
	case MonitorDefault:
		return "monitor-default"
	case MonitorByName:
		return "monitor"
	case MicrophoneDefault:
		return "microphone-default"
	case MicrophoneByName:
		return "microphone"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is a resolved capture target. Name is empty for the default kinds.
type Source struct {
	Kind SourceKind
	Name string
}

// ResolveSource turns a user supplied device name into a Source.
// An empty name selects the default device of the preferred type. Names
// ending in ".monitor" are monitor sources, anything else is a microphone.
func ResolveSource(name string, preferred dsp.DeviceType) Source {
	name = strings.TrimSpace(name)
	switch {
	case name == "" && preferred == dsp.DeviceMicrophone:
		return Source{Kind: MicrophoneDefault}
	case name == "":
		return Source{Kind: MonitorDefault}
	case strings.HasSuffix(name, monitorSuffix):
		return Source{Kind: MonitorByName, Name: name}
	default:
		return Source{Kind: MicrophoneByName, Name: name}
	}
}

// IsDefault reports whether the source follows the system default device.
func (s Source) IsDefault() bool {
	return s.Kind == MonitorDefault || s.Kind == MicrophoneDefault
}

// DeviceType returns the reference class of the source.
func (s Source) DeviceType() dsp.DeviceType {
	if s.Kind == MicrophoneDefault || s.Kind == MicrophoneByName {
		return dsp.DeviceMicrophone
	}
	return dsp.DeviceMonitor
}

// DefaultID is the identifier reported when the backend cannot name the
// device it connected to.
func (s Source) DefaultID() string {
	if !s.IsDefault() {
		return s.Name
	}
	if s.DeviceType() == dsp.DeviceMicrophone {
		return defaultMicrophoneID
	}
	return defaultMonitorID
}

func (s Source) String() string {
	if s.IsDefault() {
		return s.DefaultID()
	}
	return s.Name
}
