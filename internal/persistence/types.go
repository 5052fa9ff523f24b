package persistence

import "time"

// ProcessedVideo is one completed job in the library index. It records what
// exists on disk so the listing endpoint does not have to rescan the output
// directory on every request.
type ProcessedVideo struct {
	BaseName        string    `json:"base_name"`
	VideoPath       string    `json:"video_path"`
	SubtitlesPath   string    `json:"subtitles_path"`
	TranscriptPath  string    `json:"transcript_path"`
	Language        string    `json:"language"`
	DurationSeconds float64   `json:"duration_seconds"`
	SegmentCount    int       `json:"segment_count"`
	ChunkCount      int       `json:"chunk_count"`
	CompletedAt     time.Time `json:"completed_at"`
}
