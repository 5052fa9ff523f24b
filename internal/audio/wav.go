package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// DecodeWAV reads a WAV file into an in-memory mono track. Stereo input is
// downmixed by taking the left channel; ffmpeg extraction always produces
// mono so this only matters for hand-fed test fixtures.
func DecodeWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	track := &Track{Rate: int(format.SampleRate)}
	buf := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			track.Samples = append(track.Samples, buf[i][0])
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("stream wav: %w", err)
	}
	return track, nil
}

// EncodeWAV renders a sample window as a 16-bit PCM mono WAV byte buffer,
// ready to be posted to the speech recognition endpoint.
func EncodeWAV(samples []float64, rate int) ([]byte, error) {
	ws := &memWriteSeeker{}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(ws, &sliceStreamer{samples: samples}, format); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return ws.buf, nil
}

// sliceStreamer adapts a mono sample slice to the beep streamer contract.
type sliceStreamer struct {
	samples []float64
	pos     int
}

func (s *sliceStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for n < len(out) && s.pos < len(s.samples) {
		v := s.samples[s.pos]
		out[n][0] = v
		out[n][1] = v
		n++
		s.pos++
	}
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

// memWriteSeeker satisfies io.WriteSeeker so the WAV encoder can backpatch
// header sizes without touching the filesystem.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	m.pos = int(next)
	return next, nil
}
