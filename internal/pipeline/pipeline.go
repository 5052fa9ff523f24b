// Package pipeline runs one video job end to end: workspace preparation,
// audio extraction, windowed transcription, chunking, and artifact
// persistence, with the shared status tracker observing every stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/dkenzhe/videosub/internal/artifacts"
	"github.com/dkenzhe/videosub/internal/audio"
	"github.com/dkenzhe/videosub/internal/chunking"
	"github.com/dkenzhe/videosub/internal/jobs"
	"github.com/dkenzhe/videosub/internal/persistence"
	"github.com/dkenzhe/videosub/internal/status"
	"github.com/dkenzhe/videosub/internal/subtitle"
	"github.com/dkenzhe/videosub/internal/transcribe"
	"github.com/dkenzhe/videosub/pkg/log"
)

// Progress milestones for the stages around transcription. Transcription
// itself advances proportionally between extract-done and transcribe-done.
const (
	progressPrepared       = 5
	progressExtracting     = 10
	progressExtractDone    = 20
	progressTranscribeDone = 80
	progressChunkDone      = 90
	progressSaving         = 92
)

// AudioExtractor produces the decoded audio track of a video.
type AudioExtractor interface {
	ExtractTrack(ctx context.Context, videoPath, wavPath string) (*audio.Track, error)
}

// Transcriber converts a full audio track into an ordered transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, track *audio.Track, progress transcribe.ProgressFunc) (string, []subtitle.Segment, error)
}

// Chunker regroups transcript segments into subtitle chunks.
type Chunker interface {
	Chunk(ctx context.Context, segments []subtitle.Segment, progress chunking.ProgressFunc) ([]subtitle.Chunk, error)
}

// Library records completed jobs for the listing endpoint.
type Library interface {
	UpsertProcessed(ctx context.Context, video persistence.ProcessedVideo) error
}

type Pipeline struct {
	extractor   AudioExtractor
	transcriber Transcriber
	chunker     Chunker
	layout      artifacts.Layout
	writer      artifacts.Writer
	library     Library
	tracker     *status.Tracker
	publicBase  string
}

type Option func(*Pipeline)

// WithLibrary enables completed-job recording. Without it, finished jobs
// only exist as files on disk.
func WithLibrary(library Library) Option {
	return func(p *Pipeline) {
		p.library = library
	}
}

// WithPublicBase overrides the URL prefix under which artifacts are served.
func WithPublicBase(base string) Option {
	return func(p *Pipeline) {
		p.publicBase = base
	}
}

func New(
	extractor AudioExtractor,
	transcriber Transcriber,
	chunker Chunker,
	layout artifacts.Layout,
	tracker *status.Tracker,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		transcriber: transcriber,
		chunker:     chunker,
		layout:      layout,
		writer:      artifacts.NewWriter(),
		tracker:     tracker,
		publicBase:  "/api/files",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Executor adapts the pipeline to the job runner.
func (p *Pipeline) Executor() jobs.Executor {
	return func(ctx context.Context, job *jobs.Job) error {
		return p.Process(ctx, job)
	}
}

// Process runs one job to completion or failure. Any failure, including a
// recovered panic, is reflected in the status tracker before returning; the
// worker goroutine never dies silently.
func (p *Pipeline) Process(ctx context.Context, job *jobs.Job) (err error) {
	started := time.Now()
	p.tracker.Reset(filepath.Base(job.VideoPath))

	defer func() {
		if r := recover(); r != nil {
			err = newError(KindUnknown, fmt.Sprintf("runtime error: %v", r))
		}
		if err != nil {
			p.tracker.Fail(fmt.Sprintf("Error: %v", err))
		}
	}()

	paths, err := p.layout.Prepare(job.BaseName)
	if err != nil {
		return wrapError(KindPersistence, "prepare output folder", err)
	}
	if err := artifacts.CopyVideo(job.VideoPath, paths.Video); err != nil {
		return wrapError(KindPersistence, "copy source video", err)
	}
	p.tracker.Update(status.StageInitializing, "Preparing workspace", progressPrepared, nil)

	p.tracker.Update(status.StageExtractingAudio, "Extracting audio", progressExtracting, nil)
	track, err := p.extractor.ExtractTrack(ctx, job.VideoPath, paths.Audio)
	if err != nil {
		return wrapError(KindAudioExtraction, "extract audio", err)
	}
	p.tracker.Update(status.StageExtractingAudio, "Audio extracted", progressExtractDone, nil)

	fullText, segments, err := p.transcriber.Transcribe(ctx, track, p.transcribeProgress())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, transcribe.ErrNoSegments) {
			return wrapError(KindNoSegments, "transcription produced nothing usable", err)
		}
		return wrapError(KindUnknown, "transcription failed", err)
	}

	chunks, err := p.chunker.Chunk(ctx, segments, p.chunkProgress(len(segments)))
	if err != nil {
		return err
	}
	p.tracker.Update(status.StageChunking, "Chunking finished", progressChunkDone, subtitle.CuesFromChunks(chunks))

	p.tracker.Update(status.StageSaving, "Saving results", progressSaving, nil)
	if err := p.writer.WriteAll(fullText, segments, chunks, paths); err != nil {
		return wrapError(KindPersistence, "save output files", err)
	}

	langInfo := whatlanggo.Detect(fullText)
	p.recordProcessed(ctx, job, paths, langInfo.Lang.Iso6393(), track.Duration(), len(segments), len(chunks))

	p.tracker.Complete(p.outputs(job.BaseName))
	log.Info("Processed %s in %.2fs: %d segments, %d chunks",
		job.BaseName, time.Since(started).Seconds(), len(segments), len(chunks))
	return nil
}

// transcribeProgress maps window completion onto the transcription progress
// band and forwards accumulated segments as partial subtitles.
func (p *Pipeline) transcribeProgress() transcribe.ProgressFunc {
	return func(completed, total int, label string, partial []subtitle.Cue) {
		progress := progressExtractDone
		if total > 0 {
			progress += (progressTranscribeDone - progressExtractDone) * completed / total
		}
		p.tracker.Update(status.StageTranscribing, label, progress, partial)
	}
}

// chunkProgress maps segment consumption onto the chunking progress band and
// forwards finalized chunks as partial subtitles.
func (p *Pipeline) chunkProgress(totalSegments int) chunking.ProgressFunc {
	return func(processed, _ int, partial []subtitle.Cue) {
		progress := progressTranscribeDone
		if totalSegments > 0 {
			progress += (progressChunkDone - progressTranscribeDone) * processed / totalSegments
		}
		label := fmt.Sprintf("Chunking segment %d/%d", processed, totalSegments)
		p.tracker.Update(status.StageChunking, label, progress, partial)
	}
}

// recordProcessed is best-effort: the artifacts are already on disk, so a
// library index failure downgrades to a warning instead of failing the job.
func (p *Pipeline) recordProcessed(
	ctx context.Context,
	job *jobs.Job,
	paths artifacts.Paths,
	language string,
	duration float64,
	segmentCount, chunkCount int,
) {
	if p.library == nil {
		return
	}
	record := persistence.ProcessedVideo{
		BaseName:        job.BaseName,
		VideoPath:       paths.Video,
		SubtitlesPath:   paths.ChunkedJSON,
		TranscriptPath:  paths.TranscriptionTXT,
		Language:        language,
		DurationSeconds: duration,
		SegmentCount:    segmentCount,
		ChunkCount:      chunkCount,
		CompletedAt:     time.Now().UTC(),
	}
	if err := p.library.UpsertProcessed(ctx, record); err != nil {
		log.Warn("Failed to record processed video %s: %v", job.BaseName, err)
	}
}

func (p *Pipeline) outputs(baseName string) status.Outputs {
	return status.Outputs{
		Video:      fmt.Sprintf("%s/%s/%s.mp4", p.publicBase, baseName, baseName),
		Subtitles:  fmt.Sprintf("%s/%s/%s_chunked.json", p.publicBase, baseName, baseName),
		Transcript: fmt.Sprintf("%s/%s/%s_transcription.txt", p.publicBase, baseName, baseName),
	}
}

// WindowErrorHandler returns the orchestrator hook that folds recovered
// window failures into the structured taxonomy before logging them.
func WindowErrorHandler() func(index int, err error) {
	return func(index int, err error) {
		log.Warn("%v", windowError(index, err))
	}
}
