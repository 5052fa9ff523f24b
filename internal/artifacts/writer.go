package artifacts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dkenzhe/videosub/internal/subtitle"
)

// Writer persists the final transcript and chunk lists. Writes are not
// atomic as a set: a failure partway leaves earlier files in place.
type Writer struct{}

func NewWriter() Writer {
	return Writer{}
}

// WriteAll writes the three transcript artifacts: the raw segment list and
// the chunk list as indented UTF-8 JSON (non-ASCII preserved unescaped), and
// the full text as plain text.
func (Writer) WriteAll(
	fullText string,
	segments []subtitle.Segment,
	chunks []subtitle.Chunk,
	paths Paths,
) error {
	if err := writeJSON(paths.TranscriptionJSON, segments); err != nil {
		return fmt.Errorf("write transcription json: %w", err)
	}
	if err := writeJSON(paths.ChunkedJSON, chunks); err != nil {
		return fmt.Errorf("write chunked json: %w", err)
	}
	if err := os.WriteFile(paths.TranscriptionTXT, []byte(fullText), 0o644); err != nil {
		return fmt.Errorf("write transcription txt: %w", err)
	}
	return nil
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
