package transcribe

import (
	"context"
)

// ModelSpan is one time-stamped text fragment returned by the speech model.
// Timestamps are relative to the start of the submitted audio window, not to
// the full track. End is nil when the model could not close the final span.
type ModelSpan struct {
	Text  string
	Start float64
	End   *float64
}

// Result is the raw model output for one audio window.
type Result struct {
	Text  string
	Spans []ModelSpan
}

// Capability is the speech-to-text black box: a mono audio buffer in,
// recognized text optionally split into time-stamped spans out. Latency and
// quality are opaque to the orchestrator.
type Capability interface {
	Transcribe(ctx context.Context, samples []float64, rate int) (Result, error)
}
