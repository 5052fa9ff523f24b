package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_Duration(t *testing.T) {
	track := &Track{Samples: make([]float64, 32000), Rate: 16000}
	assert.InDelta(t, 2.0, track.Duration(), 1e-9)

	empty := &Track{Rate: 16000}
	assert.Zero(t, empty.Duration())
}

func TestTrack_Slice(t *testing.T) {
	track := &Track{Samples: make([]float64, 160), Rate: 16}

	assert.Len(t, track.Slice(0, 5), 80)
	assert.Len(t, track.Slice(5, 10), 80)

	// end past the track is clamped
	assert.Len(t, track.Slice(5, 20), 80)

	// degenerate ranges yield nothing
	assert.Nil(t, track.Slice(3, 3))
	assert.Nil(t, track.Slice(20, 30))
}

func TestWAV_EncodeDecodeRoundTrip(t *testing.T) {
	rate := 16000
	samples := make([]float64, rate/10) // 100ms sine
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}

	data, err := EncodeWAV(samples, rate)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	path := filepath.Join(t.TempDir(), "window.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	track, err := DecodeWAV(path)
	require.NoError(t, err)
	assert.Equal(t, rate, track.Rate)
	require.Len(t, track.Samples, len(samples))
	for i := 0; i < len(samples); i += 100 {
		assert.InDelta(t, samples[i], track.Samples[i], 1e-3)
	}
}

func TestDecodeWAV_MissingFile(t *testing.T) {
	_, err := DecodeWAV(filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
}
