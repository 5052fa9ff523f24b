package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "videosub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_UpsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := ProcessedVideo{
		BaseName:        "first",
		VideoPath:       "/output/first/first.mp4",
		SubtitlesPath:   "/output/first/first_chunked.json",
		TranscriptPath:  "/output/first/first_transcription.txt",
		Language:        "kaz",
		DurationSeconds: 120.5,
		SegmentCount:    10,
		ChunkCount:      7,
		CompletedAt:     time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
	newer := ProcessedVideo{
		BaseName:      "second",
		VideoPath:     "/output/second/second.mp4",
		SubtitlesPath: "/output/second/second_chunked.json",
		CompletedAt:   time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.UpsertProcessed(ctx, older))
	require.NoError(t, store.UpsertProcessed(ctx, newer))

	videos, err := store.ListProcessed(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "second", videos[0].BaseName)
	assert.Equal(t, "first", videos[1].BaseName)
	assert.Equal(t, "kaz", videos[1].Language)
	assert.Equal(t, 10, videos[1].SegmentCount)
	assert.InDelta(t, 120.5, videos[1].DurationSeconds, 1e-9)
}

func TestSQLiteStore_UpsertReplacesSameBaseName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := ProcessedVideo{BaseName: "lecture", ChunkCount: 3, CompletedAt: time.Now().UTC()}
	require.NoError(t, store.UpsertProcessed(ctx, first))

	first.ChunkCount = 9
	require.NoError(t, store.UpsertProcessed(ctx, first))

	videos, err := store.ListProcessed(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, 9, videos[0].ChunkCount)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProcessed(ctx, ProcessedVideo{BaseName: "gone", CompletedAt: time.Now().UTC()}))
	require.NoError(t, store.DeleteProcessed(ctx, "gone"))

	videos, err := store.ListProcessed(ctx)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videosub.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertProcessed(ctx, ProcessedVideo{BaseName: "persisted", CompletedAt: time.Now().UTC()}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	videos, err := reopened.ListProcessed(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "persisted", videos[0].BaseName)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, 1, migrationVersion("001_init.sql"))
	assert.Equal(t, 12, migrationVersion("012_add_language.sql"))
	assert.Equal(t, 0, migrationVersion("init.sql"))
}
