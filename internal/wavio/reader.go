// Package wavio reads PCM WAV files as normalized interleaved float32.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-vumeter/internal/simdops"
)

// Errors returned by the reader.
var (
	ErrInvalidFile       = errors.New("invalid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Info describes the decoded stream.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Reader decodes a WAV stream in interleaved float32 chunks in [-1, 1).
type Reader struct {
	src     io.ReadSeeker
	closer  io.Closer
	decoder *wav.Decoder
	info    Info
	intBuf  *audio.IntBuffer
	scale   float32
	offset  int // 8-bit PCM is unsigned
}

// Open opens and validates the WAV file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader validates rs as a WAV stream. The caller keeps ownership of rs.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: audio format %d (only integer PCM)", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing channel count or sample rate", ErrUnsupportedFormat)
	}

	fullScale, ok := fullScaleFor(bitDepth)
	if !ok {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	r := &Reader{
		src:     rs,
		decoder: decoder,
		info: Info{
			SampleRate: format.SampleRate,
			Channels:   format.NumChannels,
			BitDepth:   bitDepth,
			Duration:   duration,
		},
		intBuf: &audio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
		scale:  float32(1 / fullScale),
	}
	if bitDepth == bitsPerSample8 {
		r.offset = unsigned8Offset
	}
	return r, nil
}

// Info returns the stream format.
func (r *Reader) Info() Info {
	return r.info
}

// Read fills dst with whole interleaved frames and returns the number of
// frames decoded. It returns 0, io.EOF once the data chunk is exhausted.
// dst must hold at least one frame.
func (r *Reader) Read(dst []float32) (int, error) {
	channels := r.info.Channels
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, fmt.Errorf("destination holds %d samples, need at least %d", len(dst), channels)
	}

	if cap(r.intBuf.Data) < want {
		r.intBuf.Data = make([]int, want)
	}
	r.intBuf.Data = r.intBuf.Data[:want]

	n, err := r.decoder.PCMBuffer(r.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	n = min(n, len(r.intBuf.Data)) / channels * channels
	if n == 0 {
		return 0, io.EOF
	}

	out := dst[:n]
	for i, v := range r.intBuf.Data[:n] {
		out[i] = float32(v - r.offset)
	}
	simdops.Float32Ops().Scale(out, out, r.scale)

	return n / channels, nil
}

// Rewind restarts decoding at the first sample.
func (r *Reader) Rewind() error {
	if _, err := r.src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}
	decoder := wav.NewDecoder(r.src)
	if err := decoder.FwdToPCM(); err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}
	r.decoder = decoder
	return nil
}

// Close releases the underlying file when the reader owns it.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll decodes the whole file at path.
func ReadAll(path string) ([]float32, Info, error) {
	r, err := Open(path)
	if err != nil {
		return nil, Info{}, err
	}
	defer func() { _ = r.Close() }()

	info := r.Info()
	chunk := make([]float32, defaultChunkFrames*info.Channels)
	var samples []float32
	if info.Duration > 0 {
		est := int(info.Duration.Seconds()*float64(info.SampleRate)) * info.Channels
		samples = make([]float32, 0, est)
	}

	for {
		frames, err := r.Read(chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, info, err
		}
		samples = append(samples, chunk[:frames*info.Channels]...)
	}
	return samples, info, nil
}

func fullScaleFor(bitDepth int) (float64, bool) {
	switch bitDepth {
	case bitsPerSample8:
		return fullScale8, true
	case bitsPerSample16:
		return fullScale16, true
	case bitsPerSample24:
		return fullScale24, true
	case bitsPerSample32:
		return fullScale32, true
	default:
		return 0, false
	}
}
