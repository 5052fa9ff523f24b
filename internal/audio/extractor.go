package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dkenzhe/videosub/pkg/log"
)

// Extractor pulls a mono 16 kHz audio track out of a video file via ffmpeg.
type Extractor struct {
	ffmpegCmd  string
	sampleRate int
}

type ExtractorOption func(*Extractor)

// WithFFmpegCmd overrides the ffmpeg binary name or path.
func WithFFmpegCmd(cmd string) ExtractorOption {
	return func(e *Extractor) {
		if cmd != "" {
			e.ffmpegCmd = cmd
		}
	}
}

func NewExtractor(opts ...ExtractorOption) Extractor {
	e := Extractor{
		ffmpegCmd:  "ffmpeg",
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ExtractAudio writes the audio stream of videoPath to wavPath as mono
// 16-bit PCM WAV at the extractor's sample rate.
func (e Extractor) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	cmdPath, err := exec.LookPath(e.ffmpegCmd)
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, cmdPath, e.extractArgs(videoPath, wavPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Error("ffmpeg audio extraction failed: %v: %s", err, strings.TrimSpace(string(output)))
		return fmt.Errorf("extract audio from %s: %w", videoPath, err)
	}
	return nil
}

// ExtractTrack extracts the audio to wavPath and decodes it into memory.
func (e Extractor) ExtractTrack(ctx context.Context, videoPath, wavPath string) (*Track, error) {
	if err := e.ExtractAudio(ctx, videoPath, wavPath); err != nil {
		return nil, err
	}
	return DecodeWAV(wavPath)
}

func (e Extractor) extractArgs(videoPath, wavPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn", // drop the video stream
		"-ac", "1",
		"-ar", strconv.Itoa(e.sampleRate),
		"-c:a", "pcm_s16le",
		wavPath,
	}
}
