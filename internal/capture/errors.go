package capture

import "errors"

// Session errors.
var (
	ErrNoBackend      = errors.New("no capture backend")
	ErrInvalidConfig  = errors.New("invalid capture configuration")
	ErrDeviceNotFound = errors.New("capture device not found")
	ErrStreamFailed   = errors.New("capture stream failed")
	ErrStreamEnded    = errors.New("capture stream ended")
)
