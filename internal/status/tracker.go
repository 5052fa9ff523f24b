package status

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkenzhe/videosub/internal/subtitle"
)

// Stage identifies the pipeline phase a job is in.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageInitializing    Stage = "initializing"
	StageExtractingAudio Stage = "extracting-audio"
	StageTranscribing    Stage = "transcribing"
	StageChunking        Stage = "chunking"
	StageSaving          Stage = "saving"
	StageCompleted       Stage = "completed"
	StageFailed          Stage = "failed"
)

// Terminal reports whether no further transitions are expected for the job.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Outputs holds resolved artifact locations of a completed job.
type Outputs struct {
	Video      string `json:"video,omitempty"`
	Subtitles  string `json:"subtitles,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// Snapshot is one self-consistent view of job progress. Snapshots are
// immutable once published; pollers never observe a torn update.
type Snapshot struct {
	IsProcessing     bool           `json:"is_processing"`
	CurrentFile      string         `json:"current_file,omitempty"`
	Progress         int            `json:"progress"`
	Stage            Stage          `json:"stage"`
	CurrentStage     string         `json:"current_stage"`
	EstimatedTime    int            `json:"estimated_time"`
	PartialSubtitles []subtitle.Cue `json:"partial_subtitles"`
	Outputs          *Outputs       `json:"outputs,omitempty"`
}

// Tracker is the single shared progress record of the active job. The worker
// publishes whole snapshots through an atomically swapped pointer; any number
// of pollers read without locking. Progress is non-decreasing within a job
// except for the reset on a new submission and the zeroing on failure.
type Tracker struct {
	mu        sync.Mutex
	snap      atomic.Pointer[Snapshot]
	startedAt time.Time
	now       func() time.Time
}

func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.snap.Store(&Snapshot{Stage: StageIdle, CurrentStage: "Idle"})
	return t
}

// Snapshot returns the latest published snapshot.
func (t *Tracker) Snapshot() Snapshot {
	return *t.snap.Load()
}

// Reset wipes the record for a new job, including partial subtitles.
func (t *Tracker) Reset(currentFile string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startedAt = t.now()
	t.snap.Store(&Snapshot{
		IsProcessing: true,
		CurrentFile:  currentFile,
		Progress:     0,
		Stage:        StageInitializing,
		CurrentStage: "Initializing",
	})
}

// Update publishes a new stage label, progress value, and partial results.
// A progress value below the current one is clamped up, never applied.
func (t *Tracker) Update(stage Stage, label string, progress int, partial []subtitle.Cue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snap.Load()
	if prev.Stage.Terminal() {
		return
	}
	if progress < prev.Progress {
		progress = prev.Progress
	}
	if progress > 100 {
		progress = 100
	}
	if partial == nil {
		partial = prev.PartialSubtitles
	}

	t.snap.Store(&Snapshot{
		IsProcessing:     true,
		CurrentFile:      prev.CurrentFile,
		Progress:         progress,
		Stage:            stage,
		CurrentStage:     label,
		EstimatedTime:    t.estimateLocked(progress),
		PartialSubtitles: partial,
	})
}

// Fail freezes the record in the failed state. Progress drops to zero but
// partial subtitles are kept so work done before the failure stays visible.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snap.Load()
	t.snap.Store(&Snapshot{
		IsProcessing:     false,
		CurrentFile:      prev.CurrentFile,
		Progress:         0,
		Stage:            StageFailed,
		CurrentStage:     message,
		PartialSubtitles: prev.PartialSubtitles,
	})
}

// Complete freezes the record in the completed state with resolved outputs.
func (t *Tracker) Complete(outputs Outputs) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snap.Load()
	out := outputs
	t.snap.Store(&Snapshot{
		IsProcessing:     false,
		CurrentFile:      prev.CurrentFile,
		Progress:         100,
		Stage:            StageCompleted,
		CurrentStage:     "Completed",
		PartialSubtitles: prev.PartialSubtitles,
		Outputs:          &out,
	})
}

// estimateLocked projects remaining seconds from elapsed time and progress.
func (t *Tracker) estimateLocked(progress int) int {
	if progress <= 0 || t.startedAt.IsZero() {
		return 0
	}
	elapsed := t.now().Sub(t.startedAt).Seconds()
	remaining := elapsed * float64(100-progress) / float64(progress)
	return int(remaining)
}
