package subtitle

// Segment is one absolute-time-stamped transcript unit produced by the
// segmented transcription orchestrator. Timestamps are seconds relative to
// the start of the audio track, never to an individual window.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Chunk is a finalized subtitle unit composed of one or more sentences,
// bounded by duration, sentence count, and terminal punctuation rules.
type Chunk struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Cue is the common shape shared by segments and chunks, used where either
// may appear (e.g. partial results in a progress snapshot).
type Cue struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (s Segment) Cue() Cue {
	return Cue{ID: s.ID, Start: s.Start, End: s.End, Text: s.Text}
}

func (c Chunk) Cue() Cue {
	return Cue{ID: c.ID, Start: c.Start, End: c.End, Text: c.Text}
}

// CuesFromSegments converts a segment list into cues, preserving order.
func CuesFromSegments(segments []Segment) []Cue {
	cues := make([]Cue, 0, len(segments))
	for _, s := range segments {
		cues = append(cues, s.Cue())
	}
	return cues
}

// CuesFromChunks converts a chunk list into cues, preserving order.
func CuesFromChunks(chunks []Chunk) []Cue {
	cues := make([]Cue, 0, len(chunks))
	for _, c := range chunks {
		cues = append(cues, c.Cue())
	}
	return cues
}
