package wavio

// Bit depth constants
const (
	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
)

// Full-scale magnitudes (2^(bits-1)) so the most negative code maps to -1.
const (
	fullScale8  = 128.0
	fullScale16 = 32768.0
	fullScale24 = 8388608.0
	fullScale32 = 2147483648.0

	unsigned8Offset = 128
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	defaultChunkFrames = 4096
)
