// Package chunking regroups raw transcript segments into human-readable
// subtitle chunks bounded by duration, sentence count, and terminal
// punctuation.
package chunking

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dkenzhe/videosub/internal/subtitle"
)

const (
	// DefaultMaxDuration caps chunk length in seconds.
	DefaultMaxDuration = 8.0
	// DefaultMaxSentences caps the number of sentences per chunk.
	DefaultMaxSentences = 3
)

// sentenceBoundary matches a terminal punctuation mark followed by
// whitespace. No lookahead for abbreviations: splitting is greedy.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// sentenceSpan is an ephemeral sentence with proportionally allocated time.
type sentenceSpan struct {
	text  string
	start float64
	end   float64
}

// ProgressFunc receives per-segment progress: segments consumed out of
// total, and the chunks finalized so far.
type ProgressFunc func(processed, total int, partial []subtitle.Cue)

type Chunker struct {
	maxDuration  float64
	maxSentences int
}

type Option func(*Chunker)

func WithMaxDuration(seconds float64) Option {
	return func(c *Chunker) {
		if seconds > 0 {
			c.maxDuration = seconds
		}
	}
}

func WithMaxSentences(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxSentences = n
		}
	}
}

func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		maxDuration:  DefaultMaxDuration,
		maxSentences: DefaultMaxSentences,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits each segment into sentences, allocates time to each sentence
// proportionally to its character offset within the segment, and accumulates
// sentences into chunks. The pending accumulator is flushed before a new
// sentence is appended when the chunk would exceed the duration limit, when
// it already holds the maximum sentence count, or when the incoming sentence
// ends in terminal punctuation.
//
// The terminal-punctuation rule intentionally flushes the pre-existing
// accumulator, so the terminal sentence itself opens the next chunk rather
// than closing the current one. Downstream consumers depend on these exact
// boundaries; do not reorder the checks.
func (c *Chunker) Chunk(
	ctx context.Context,
	segments []subtitle.Segment,
	progress ProgressFunc,
) ([]subtitle.Chunk, error) {
	chunks := make([]subtitle.Chunk, 0)
	var current []sentenceSpan

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var timePerChar float64
		if chars := utf8.RuneCountInString(seg.Text); chars > 0 {
			timePerChar = (seg.End - seg.Start) / float64(chars)
		}

		for _, sentence := range splitSentences(seg.Text) {
			if sentence == "" {
				continue
			}

			offset := runeIndex(seg.Text, sentence)
			rawStart := seg.Start + timePerChar*float64(offset)
			rawEnd := rawStart + timePerChar*float64(utf8.RuneCountInString(sentence))

			if len(current) > 0 &&
				(rawEnd-current[0].start > c.maxDuration ||
					len(current) >= c.maxSentences ||
					endsWithTerminal(sentence)) {
				chunks = append(chunks, finalize(current, len(chunks)))
				current = nil
			}

			current = append(current, sentenceSpan{
				text:  sentence,
				start: round2(rawStart),
				end:   round2(rawEnd),
			})
		}

		if progress != nil {
			progress(i+1, len(segments), subtitle.CuesFromChunks(chunks))
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, finalize(current, len(chunks)))
	}

	return chunks, nil
}

// splitSentences breaks text at whitespace runs that follow terminal
// punctuation. The punctuation stays attached to the preceding sentence and
// the whitespace is consumed. A sentence that contains no terminal
// punctuation is never subdivided further.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// terminal punctuation marks are single-byte, so the sentence ends
		// one byte past the match start
		sentences = append(sentences, text[last:m[0]+1])
		last = m[1]
	}
	return append(sentences, text[last:])
}

// runeIndex returns the code-point offset of the first occurrence of
// sentence within text. Time allocation counts characters, not bytes, so
// multi-byte scripts are timed the same as ASCII.
func runeIndex(text, sentence string) int {
	byteIdx := strings.Index(text, sentence)
	if byteIdx < 0 {
		return 0
	}
	return utf8.RuneCountInString(text[:byteIdx])
}

func endsWithTerminal(sentence string) bool {
	return strings.HasSuffix(sentence, ".") ||
		strings.HasSuffix(sentence, "!") ||
		strings.HasSuffix(sentence, "?")
}

func finalize(spans []sentenceSpan, id int) subtitle.Chunk {
	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = s.text
	}
	return subtitle.Chunk{
		ID:    id,
		Start: spans[0].start,
		End:   spans[len(spans)-1].end,
		Text:  strings.Join(texts, " "),
	}
}

func round2(v float64) float64 {
	// keep two decimals the way the transcript timestamps are kept
	return math.Round(v*100) / 100
}
