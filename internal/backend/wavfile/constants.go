package wavfile

const (
	backendName   = "wav"
	monitorSuffix = ".monitor"
)
