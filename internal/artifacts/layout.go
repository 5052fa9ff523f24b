package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Paths is the on-disk layout of one job's artifacts: everything lives under
// output/<base>/ with the base name prefixed onto each file.
type Paths struct {
	BaseDir           string
	Video             string
	Audio             string
	TranscriptionJSON string
	TranscriptionTXT  string
	ChunkedJSON       string
}

// Layout derives per-job artifact paths under a fixed output root.
type Layout struct {
	root string
}

func NewLayout(outputRoot string) Layout {
	return Layout{root: outputRoot}
}

func (l Layout) Root() string {
	return l.root
}

// PathsFor returns the artifact paths of a job without touching the disk.
func (l Layout) PathsFor(baseName string) Paths {
	dir := filepath.Join(l.root, baseName)
	return Paths{
		BaseDir:           dir,
		Video:             filepath.Join(dir, baseName+".mp4"),
		Audio:             filepath.Join(dir, baseName+".wav"),
		TranscriptionJSON: filepath.Join(dir, baseName+"_transcription.json"),
		TranscriptionTXT:  filepath.Join(dir, baseName+"_transcription.txt"),
		ChunkedJSON:       filepath.Join(dir, baseName+"_chunked.json"),
	}
}

// Prepare creates the job's output folder and returns its paths.
func (l Layout) Prepare(baseName string) (Paths, error) {
	paths := l.PathsFor(baseName)
	if err := os.MkdirAll(paths.BaseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output folder %s: %w", paths.BaseDir, err)
	}
	return paths, nil
}

// CopyVideo copies the uploaded source video into the job's output folder so
// the artifact set is self-contained.
func CopyVideo(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source video: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create video copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy video: %w", err)
	}
	return out.Close()
}
