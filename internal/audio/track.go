package audio

// DefaultSampleRate is the sample rate the speech model expects.
const DefaultSampleRate = 16000

// Track is decoded mono audio at a fixed sample rate. It is immutable once
// extracted and owned by the transcription orchestrator for one job.
type Track struct {
	Samples []float64
	Rate    int
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t.Rate <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.Rate)
}

// Slice returns the samples covering [start, end) seconds, clamped to the
// track bounds.
func (t *Track) Slice(start, end float64) []float64 {
	if t.Rate <= 0 || start >= end {
		return nil
	}
	from := int(start * float64(t.Rate))
	to := int(end * float64(t.Rate))
	if from < 0 {
		from = 0
	}
	if to > len(t.Samples) {
		to = len(t.Samples)
	}
	if from >= to {
		return nil
	}
	return t.Samples[from:to]
}
