package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

const wavFormatPCM = 1

// WriteWAV encodes interleaved float samples in [-1, 1] as integer PCM into
// a file under t.TempDir and returns its path.
func WriteWAV(t *testing.T, name string, samples []float32, sampleRate, channels, bitDepth int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	fullScale := math.Ldexp(1, bitDepth-1)
	data := make([]int, len(samples))
	for i, v := range samples {
		q := math.Round(float64(v) * fullScale)
		data[i] = int(math.Max(-fullScale, math.Min(fullScale-1, q)))
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}
