package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-vumeter/internal/dsp"
)

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name      string
		device    string
		preferred dsp.DeviceType
		want      Source
		wantType  dsp.DeviceType
		wantID    string
	}{
		{"default monitor", "", dsp.DeviceMonitor, Source{Kind: MonitorDefault}, dsp.DeviceMonitor, "[default monitor]"},
		{"default microphone", "", dsp.DeviceMicrophone, Source{Kind: MicrophoneDefault}, dsp.DeviceMicrophone, "[default microphone]"},
		{"blank is default", "  ", dsp.DeviceMonitor, Source{Kind: MonitorDefault}, dsp.DeviceMonitor, "[default monitor]"},
		{
			"named monitor", "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor", dsp.DeviceMicrophone,
			Source{Kind: MonitorByName, Name: "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor"},
			dsp.DeviceMonitor, "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor",
		},
		{
			"named microphone", "alsa_input.usb-Blue_Yeti", dsp.DeviceMonitor,
			Source{Kind: MicrophoneByName, Name: "alsa_input.usb-Blue_Yeti"},
			dsp.DeviceMicrophone, "alsa_input.usb-Blue_Yeti",
		},
		{
			"monitor word in the middle", "monitor.input", dsp.DeviceMonitor,
			Source{Kind: MicrophoneByName, Name: "monitor.input"},
			dsp.DeviceMicrophone, "monitor.input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSource(tt.device, tt.preferred)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantType, got.DeviceType())
			assert.Equal(t, tt.wantID, got.DefaultID())
			assert.Equal(t, tt.wantID, got.String())
			assert.Equal(t, tt.device == "" || tt.device == "  ", got.IsDefault())
		})
	}
}

func TestSourceKindString(t *testing.T) {
	assert.Equal(t, "monitor-default", MonitorDefault.String())
	assert.Equal(t, "microphone", MicrophoneByName.String())
	assert.Equal(t, "SourceKind(9)", SourceKind(9).String())
}

func TestStreamConfigFragmentFrames(t *testing.T) {
	assert.Equal(t, 480, StreamConfig{SampleRate: 48000, Fragment: 10 * time.Millisecond}.FragmentFrames())
	assert.Equal(t, 441, StreamConfig{SampleRate: 44100, Fragment: 10 * time.Millisecond}.FragmentFrames())
	assert.Equal(t, 1, StreamConfig{SampleRate: 8000, Fragment: time.Microsecond}.FragmentFrames())
}

func TestReferenceLevels(t *testing.T) {
	l := DefaultReferenceLevels()
	assert.InDelta(t, 0.0, l.For(dsp.DeviceMicrophone), 0)
	assert.InDelta(t, -14.0, l.For(dsp.DeviceMonitor), 0)

	m := l.With(dsp.DeviceMicrophone, -3)
	assert.InDelta(t, -3.0, m.Microphone, 0)
	assert.InDelta(t, 0.0, l.Microphone, 0, "With returns a copy")

	opts := m.Options(dsp.DeviceMicrophone)
	assert.Equal(t, dsp.ReferenceOptions{ReferenceDbfs: -3, DeviceType: dsp.DeviceMicrophone}, opts)
	assert.InDelta(t, 0.0, opts.EffectiveReferenceDbfs(), 0, "override off")
}
