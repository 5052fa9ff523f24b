package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkenzhe/videosub/internal/artifacts"
	"github.com/dkenzhe/videosub/internal/persistence"
	"github.com/dkenzhe/videosub/internal/subtitle"
)

type memoryStore struct {
	rows map[string]persistence.ProcessedVideo
}

func newMemoryStore(rows ...persistence.ProcessedVideo) *memoryStore {
	s := &memoryStore{rows: make(map[string]persistence.ProcessedVideo)}
	for _, row := range rows {
		s.rows[row.BaseName] = row
	}
	return s
}

func (s *memoryStore) UpsertProcessed(_ context.Context, video persistence.ProcessedVideo) error {
	s.rows[video.BaseName] = video
	return nil
}

func (s *memoryStore) ListProcessed(_ context.Context) ([]persistence.ProcessedVideo, error) {
	out := make([]persistence.ProcessedVideo, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryStore) DeleteProcessed(_ context.Context, baseName string) error {
	delete(s.rows, baseName)
	return nil
}

func writeArtifactFolder(t *testing.T, layout artifacts.Layout, baseName string, segments []subtitle.Segment, chunks []subtitle.Chunk, transcript string) {
	t.Helper()
	paths, err := layout.Prepare(baseName)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.Video, []byte("video"), 0o644))

	chunkData, err := json.Marshal(chunks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.ChunkedJSON, chunkData, 0o644))

	if segments != nil {
		segData, err := json.Marshal(segments)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(paths.TranscriptionJSON, segData, 0o644))
	}
	if transcript != "" {
		require.NoError(t, os.WriteFile(paths.TranscriptionTXT, []byte(transcript), 0o644))
	}
}

func TestSweep_RegistersUnindexedFolder(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	store := newMemoryStore()

	segments := []subtitle.Segment{
		{ID: 0, Start: 0.0, End: 3.5, Text: "Hello everyone."},
		{ID: 1, Start: 3.5, End: 7.0, Text: "Welcome to the lecture."},
	}
	chunks := []subtitle.Chunk{{ID: 0, Start: 0.0, End: 7.0, Text: "Hello everyone. Welcome to the lecture."}}
	writeArtifactFolder(t, layout, "talk", segments, chunks, "Hello everyone. Welcome to the lecture.")

	sweeper := NewSweeper(store, layout, "@hourly", cron.New())
	require.NoError(t, sweeper.Sweep(context.Background()))

	row, ok := store.rows["talk"]
	require.True(t, ok)
	assert.Equal(t, 2, row.SegmentCount)
	assert.Equal(t, 1, row.ChunkCount)
	assert.InDelta(t, 7.0, row.DurationSeconds, 1e-9)
	assert.Equal(t, "eng", row.Language)
	assert.Equal(t, layout.PathsFor("talk").Video, row.VideoPath)
}

func TestSweep_DeletesRowsWithoutFolder(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	store := newMemoryStore(persistence.ProcessedVideo{BaseName: "ghost", CompletedAt: time.Now().UTC()})

	sweeper := NewSweeper(store, layout, "@hourly", cron.New())
	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.rows)
}

func TestSweep_IgnoresIncompleteFolder(t *testing.T) {
	root := t.TempDir()
	layout := artifacts.NewLayout(root)
	store := newMemoryStore()

	// Video copy only: the job never produced chunked subtitles.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "partial"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "partial", "partial.mp4"), []byte("video"), 0o644))

	sweeper := NewSweeper(store, layout, "@hourly", cron.New())
	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.rows)
}

func TestSweep_KeepsIndexedFolderUntouched(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	chunks := []subtitle.Chunk{{ID: 0, Start: 0.0, End: 2.0, Text: "Hi."}}
	writeArtifactFolder(t, layout, "kept", nil, chunks, "")

	original := persistence.ProcessedVideo{BaseName: "kept", Language: "kaz", ChunkCount: 42, CompletedAt: time.Now().UTC()}
	store := newMemoryStore(original)

	sweeper := NewSweeper(store, layout, "@hourly", cron.New())
	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, original, store.rows["kept"])
}

func TestSweep_MissingOutputRootIsNotAnError(t *testing.T) {
	layout := artifacts.NewLayout(filepath.Join(t.TempDir(), "does-not-exist"))
	store := newMemoryStore(persistence.ProcessedVideo{BaseName: "ghost", CompletedAt: time.Now().UTC()})

	sweeper := NewSweeper(store, layout, "@hourly", cron.New())
	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.rows)
}

func TestSchedule_RejectsInvalidCronExpression(t *testing.T) {
	sweeper := NewSweeper(newMemoryStore(), artifacts.NewLayout(t.TempDir()), "not a cron expr", cron.New())
	assert.Error(t, sweeper.Schedule(context.Background()))
}
