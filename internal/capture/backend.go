package capture

import (
	"context"
	"time"

	"github.com/tphakala/go-vumeter/internal/dsp"
)

// Buffer is one delivery of interleaved float32 PCM.
// Data is only valid for the duration of the callback.
type Buffer struct {
	Data       []float32
	Frames     int
	Channels   int
	SampleRate float32
}

// StreamConfig is the format a session asks a backend for.
type StreamConfig struct {
	SampleRate int
	Channels   int

	// Fragment is the delivery period.
	Fragment time.Duration
}

// FragmentFrames returns the number of frames per delivery, at least one.
func (c StreamConfig) FragmentFrames() int {
	return max(1, int(int64(c.SampleRate)*int64(c.Fragment)/int64(time.Second)))
}

// DeviceInfo describes one capture device.
type DeviceInfo struct {
	Name      string         `json:"name"`
	ID        string         `json:"id"`
	Channels  int            `json:"channels"`
	IsDefault bool           `json:"is_default"`
	Kind      dsp.DeviceType `json:"kind"`
}

// Backend is the platform audio glue.
type Backend interface {
	// Name identifies the backend ("pulse", "wav").
	Name() string

	// Devices enumerates capture devices.
	Devices(ctx context.Context) ([]DeviceInfo, error)

	// Open connects to src and starts calling deliver from a single
	// goroutine. ctx bounds the connection phase only; the stream lives
	// until it fails or is closed.
	Open(ctx context.Context, src Source, cfg StreamConfig, deliver func(Buffer)) (Stream, error)
}

// Stream is a running capture.
type Stream interface {
	// DeviceID names the device actually opened, or "" if unknown.
	DeviceID() string

	// Done is closed once delivery has stopped for any reason.
	Done() <-chan struct{}

	// Err reports why delivery stopped. nil after Close or a normal end
	// of input.
	Err() error

	// Close stops delivery and waits for the delivery goroutine to exit.
	// It is safe to call more than once.
	Close() error
}
