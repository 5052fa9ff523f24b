package transcribe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dkenzhe/videosub/internal/audio"
	"github.com/dkenzhe/videosub/internal/subtitle"
	"github.com/dkenzhe/videosub/pkg/log"
)

// DefaultWindowSeconds is the fixed window length submitted to the model.
const DefaultWindowSeconds = 15.0

// ErrNoSegments is returned when no window produced a usable segment.
var ErrNoSegments = errors.New("no transcript segments produced")

// Window is a contiguous [Start, End) time range of the audio track.
type Window struct {
	Start float64
	End   float64
}

// PartitionWindows covers [0, duration) with fixed-length windows, the last
// one truncated to the track duration. The partition is exact: no gaps, no
// overlaps.
func PartitionWindows(duration, windowLen float64) []Window {
	if duration <= 0 || windowLen <= 0 {
		return nil
	}
	windows := make([]Window, 0, int(duration/windowLen)+1)
	for start := 0.0; start < duration; start += windowLen {
		end := start + windowLen
		if end > duration {
			end = duration
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}

// ProgressFunc receives per-window progress: windows completed out of total,
// a human-readable label, and the segments accumulated so far.
type ProgressFunc func(completed, total int, label string, partial []subtitle.Cue)

// Orchestrator splits a full audio track into fixed-length windows, invokes
// the speech capability per window, and reconciles window-relative model
// timestamps into one absolute, sorted transcript.
//
// Window-local time-stamping from the model is unreliable across long audio,
// so absolute time is always reconstructed from the known window offset.
type Orchestrator struct {
	capability    Capability
	windowLen     float64
	onWindowError func(index int, err error)
}

type OrchestratorOption func(*Orchestrator)

// WithWindowLength overrides the default window length in seconds.
func WithWindowLength(seconds float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if seconds > 0 {
			o.windowLen = seconds
		}
	}
}

// WithWindowErrorHandler installs a callback for recovered per-window
// failures. The handler observes the failure; it cannot veto the skip.
func WithWindowErrorHandler(handler func(index int, err error)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onWindowError = handler
	}
}

func NewOrchestrator(capability Capability, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		capability: capability,
		windowLen:  DefaultWindowSeconds,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transcribe runs the full track through the capability window by window.
// A single window failure is not fatal: the window is skipped and the job
// continues. The call fails only when the context is cancelled or when zero
// segments survive across all windows.
func (o *Orchestrator) Transcribe(
	ctx context.Context,
	track *audio.Track,
	progress ProgressFunc,
) (string, []subtitle.Segment, error) {
	duration := track.Duration()
	windows := PartitionWindows(duration, o.windowLen)
	log.Info("Transcribing %.2fs of audio in %d windows of %.0fs", duration, len(windows), o.windowLen)

	segments := make([]subtitle.Segment, 0)
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		result, err := o.capability.Transcribe(ctx, track.Slice(w.Start, w.End), track.Rate)
		if err != nil {
			log.Warn("Window %d/%d (%s - %s) failed, skipping: %v",
				i+1, len(windows), formatClock(w.Start), formatClock(w.End), err)
			if o.onWindowError != nil {
				o.onWindowError(i, err)
			}
		} else {
			segments = append(segments, windowSegments(result, w, duration)...)
		}

		if progress != nil {
			label := fmt.Sprintf("Transcribing %s - %s of %s",
				formatClock(w.Start), formatClock(w.End), formatClock(duration))
			progress(i+1, len(windows), label, subtitle.CuesFromSegments(segments))
		}
	}

	if len(segments) == 0 {
		return "", nil, ErrNoSegments
	}

	// Completion order equals submission order with a single worker, but the
	// sort is kept as a correctness safeguard.
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	for i := range segments {
		segments[i].ID = i
	}

	return joinTexts(segments), segments, nil
}

// windowSegments converts one window's model output into absolute-time
// segments. Spans that collapse after clamping are discarded; a flat text
// answer with no spans becomes a single segment covering the whole window.
func windowSegments(result Result, w Window, duration float64) []subtitle.Segment {
	if len(result.Spans) > 0 {
		segments := make([]subtitle.Segment, 0, len(result.Spans))
		for _, span := range result.Spans {
			end := span.Start + 1.0
			if span.End != nil {
				end = *span.End
			}

			absStart := round2(w.Start + span.Start)
			absEnd := round2(w.Start + end)
			if absEnd > duration {
				absEnd = round2(duration)
			}
			if absStart >= absEnd {
				continue
			}
			segments = append(segments, subtitle.Segment{
				Start: absStart,
				End:   absEnd,
				Text:  strings.TrimSpace(span.Text),
			})
		}
		return segments
	}

	if text := strings.TrimSpace(result.Text); text != "" {
		return []subtitle.Segment{{
			Start: round2(w.Start),
			End:   round2(math.Min(w.End, duration)),
			Text:  text,
		}}
	}

	return nil
}

// joinTexts space-joins non-empty segment texts in final order.
func joinTexts(segments []subtitle.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatClock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
