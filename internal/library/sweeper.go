// Package library reconciles the processed-video index against the artifacts
// that actually exist on disk. Folders can appear (restored backups, manual
// copies) or vanish (manual cleanup) behind the server's back; the sweeper
// keeps the index honest on a cron schedule.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dkenzhe/videosub/internal/artifacts"
	"github.com/dkenzhe/videosub/internal/persistence"
	"github.com/dkenzhe/videosub/internal/subtitle"
	"github.com/dkenzhe/videosub/pkg/log"
)

// Store is the index the sweeper reconciles.
type Store interface {
	UpsertProcessed(ctx context.Context, video persistence.ProcessedVideo) error
	ListProcessed(ctx context.Context) ([]persistence.ProcessedVideo, error)
	DeleteProcessed(ctx context.Context, baseName string) error
}

type Sweeper struct {
	store    Store
	layout   artifacts.Layout
	cronExpr string
	cron     *cron.Cron
	group    singleflight.Group
}

func NewSweeper(store Store, layout artifacts.Layout, cronExpr string, cronEngine *cron.Cron) *Sweeper {
	return &Sweeper{
		store:    store,
		layout:   layout,
		cronExpr: cronExpr,
		cron:     cronEngine,
	}
}

// Schedule registers the sweep on the cron engine. Overlapping triggers
// collapse into one running sweep.
func (s *Sweeper) Schedule(ctx context.Context) error {
	runFunc := func() {
		_, _, _ = s.group.Do("sweep", func() (any, error) {
			if err := s.Sweep(ctx); err != nil {
				log.Error("Library sweep failed: %v", err)
			}
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

// Sweep makes one reconciliation pass: index rows whose folders vanished are
// deleted, complete folders missing from the index are registered. A folder
// counts as complete when both the video copy and the chunked subtitles exist.
func (s *Sweeper) Sweep(ctx context.Context) error {
	known, err := s.store.ListProcessed(ctx)
	if err != nil {
		return fmt.Errorf("list processed videos: %w", err)
	}

	entries, err := os.ReadDir(s.layout.Root())
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return fmt.Errorf("read output root: %w", err)
		}
	}

	onDisk := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		paths := s.layout.PathsFor(name)
		if fileExists(paths.Video) && fileExists(paths.ChunkedJSON) {
			onDisk[name] = true
		}
	}

	indexed := make(map[string]bool, len(known))
	for _, row := range known {
		indexed[row.BaseName] = true
		if onDisk[row.BaseName] {
			continue
		}
		log.Info("Folder for %s is gone, dropping it from the library", row.BaseName)
		if err := s.store.DeleteProcessed(ctx, row.BaseName); err != nil {
			return fmt.Errorf("delete %s: %w", row.BaseName, err)
		}
	}

	for name := range onDisk {
		if indexed[name] {
			continue
		}
		log.Info("Found unindexed folder %s, registering it", name)
		if err := s.register(ctx, name); err != nil {
			log.Warn("Failed to register folder %s: %v", name, err)
		}
	}

	return nil
}

// register rebuilds an index row from the artifact files alone.
func (s *Sweeper) register(ctx context.Context, baseName string) error {
	paths := s.layout.PathsFor(baseName)

	var chunks []subtitle.Chunk
	if err := readJSONFile(paths.ChunkedJSON, &chunks); err != nil {
		return err
	}

	// The per-segment transcription and the plain transcript are optional:
	// a folder with only video and chunks is still a valid library entry.
	var segments []subtitle.Segment
	if fileExists(paths.TranscriptionJSON) {
		if err := readJSONFile(paths.TranscriptionJSON, &segments); err != nil {
			log.Warn("Unreadable transcription for %s: %v", baseName, err)
		}
	}

	lang := ""
	if text, err := os.ReadFile(paths.TranscriptionTXT); err == nil && len(text) > 0 {
		lang = whatlanggo.Detect(string(text)).Lang.Iso6393()
	}

	duration := 0.0
	if n := len(chunks); n > 0 {
		duration = chunks[n-1].End
	}

	completedAt := time.Now().UTC()
	if info, err := os.Stat(paths.ChunkedJSON); err == nil {
		completedAt = info.ModTime().UTC()
	}

	return s.store.UpsertProcessed(ctx, persistence.ProcessedVideo{
		BaseName:        baseName,
		VideoPath:       paths.Video,
		SubtitlesPath:   paths.ChunkedJSON,
		TranscriptPath:  paths.TranscriptionTXT,
		Language:        lang,
		DurationSeconds: duration,
		SegmentCount:    len(segments),
		ChunkCount:      len(chunks),
		CompletedAt:     completedAt,
	})
}

func readJSONFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
