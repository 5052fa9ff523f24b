package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// UpsertProcessed records a completed job, replacing any previous record for
// the same base name (re-uploading a video overwrites its artifacts).
func (s *SQLiteStore) UpsertProcessed(ctx context.Context, video ProcessedVideo) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processed_videos
		(base_name, video_path, subtitles_path, transcript_path, language,
		 duration_seconds, segment_count, chunk_count, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(base_name) DO UPDATE SET
			video_path = excluded.video_path,
			subtitles_path = excluded.subtitles_path,
			transcript_path = excluded.transcript_path,
			language = excluded.language,
			duration_seconds = excluded.duration_seconds,
			segment_count = excluded.segment_count,
			chunk_count = excluded.chunk_count,
			completed_at = excluded.completed_at`,
		video.BaseName, video.VideoPath, video.SubtitlesPath, video.TranscriptPath,
		video.Language, video.DurationSeconds, video.SegmentCount, video.ChunkCount,
		video.CompletedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert processed video %s: %w", video.BaseName, err)
	}
	return nil
}

// ListProcessed returns all completed jobs, newest first.
func (s *SQLiteStore) ListProcessed(ctx context.Context) ([]ProcessedVideo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			base_name, video_path, subtitles_path, transcript_path, language,
			duration_seconds, segment_count, chunk_count, completed_at
		FROM processed_videos
		ORDER BY completed_at DESC, base_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list processed videos: %w", err)
	}
	defer rows.Close()

	videos := make([]ProcessedVideo, 0)
	for rows.Next() {
		var v ProcessedVideo
		var completedAt string
		if err := rows.Scan(&v.BaseName, &v.VideoPath, &v.SubtitlesPath, &v.TranscriptPath,
			&v.Language, &v.DurationSeconds, &v.SegmentCount, &v.ChunkCount, &completedAt); err != nil {
			return nil, fmt.Errorf("scan processed video: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
			v.CompletedAt = ts
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// DeleteProcessed removes one library record, e.g. when the artifacts were
// deleted from disk out of band.
func (s *SQLiteStore) DeleteProcessed(ctx context.Context, baseName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_videos WHERE base_name = ?`, baseName); err != nil {
		return fmt.Errorf("delete processed video %s: %w", baseName, err)
	}
	return nil
}
