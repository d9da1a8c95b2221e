package alignment

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PartKind classifies a span of sentence audio.
type PartKind string

const (
	KindOriginal    PartKind = "original"
	KindTranslation PartKind = "translation"
	KindOther       PartKind = "other"
	KindSilence     PartKind = "silence"
)

// toleranceMs bounds float drift accepted by Validate.
const toleranceMs = 0.01

// HighlightStep is one timed highlight instruction within a part. Times are
// milliseconds relative to the start of the part.
type HighlightStep struct {
	Kind       PartKind `json:"kind"`
	WordIndex  *int     `json:"word_index,omitempty"`
	CharStart  *int     `json:"char_start,omitempty"`
	CharEnd    *int     `json:"char_end,omitempty"`
	StartMs    float64  `json:"start_ms"`
	DurationMs float64  `json:"duration_ms"`
}

// HasCharRange reports whether the step carries a character range.
func (s HighlightStep) HasCharRange() bool {
	return s.CharStart != nil && s.CharEnd != nil
}

// AudioHighlightPart is one contiguous span of a sentence clip.
type AudioHighlightPart struct {
	Kind        PartKind        `json:"kind"`
	Duration    time.Duration   `json:"duration"`
	Text        string          `json:"text,omitempty"`
	StartOffset time.Duration   `json:"start_offset"`
	Steps       []HighlightStep `json:"steps,omitempty"`
}

// SentenceAudioMetadata describes how a sentence clip divides into parts.
type SentenceAudioMetadata struct {
	Parts         []AudioHighlightPart `json:"parts"`
	TotalDuration time.Duration        `json:"total_duration"`
}

// PartInput is one piece of synthesized audio handed to BuildSentenceMetadata.
type PartInput struct {
	Kind     PartKind
	Text     string
	Duration time.Duration
	// Timing is backend-reported character timing, if any.
	Timing []CharTiming
}

// Options controls step generation.
type Options struct {
	Mode Mode
	// Estimate enables AlignCharacters for parts without backend timing.
	Estimate bool
}

// BuildSentenceMetadata lays parts end to end and computes highlight steps
// for every spoken part.
func BuildSentenceMetadata(parts []PartInput, opts Options) SentenceAudioMetadata {
	meta := SentenceAudioMetadata{Parts: make([]AudioHighlightPart, 0, len(parts))}
	var offset time.Duration
	for _, in := range parts {
		if in.Duration < 0 {
			in.Duration = 0
		}
		part := AudioHighlightPart{
			Kind:        in.Kind,
			Duration:    in.Duration,
			Text:        in.Text,
			StartOffset: offset,
		}
		if in.Kind != KindSilence && in.Duration > 0 {
			timings := in.Timing
			if len(timings) > 0 {
				timings = fitTimings(timings, in.Duration)
			} else if opts.Estimate {
				timings = AlignCharacters(in.Duration, in.Text, opts.Mode)
			}
			part.Steps = StepsFromTimings(in.Kind, timings)
		}
		meta.Parts = append(meta.Parts, part)
		offset += in.Duration
	}
	meta.TotalDuration = offset
	return meta
}

// StepsFromTimings converts character timings into highlight steps carrying
// the word index and a one-grapheme character range.
func StepsFromTimings(kind PartKind, timings []CharTiming) []HighlightStep {
	if len(timings) == 0 {
		return nil
	}
	steps := make([]HighlightStep, len(timings))
	for i, t := range timings {
		word := t.WordIndex
		start := t.Index
		end := t.Index + 1
		steps[i] = HighlightStep{
			Kind:       kind,
			WordIndex:  &word,
			CharStart:  &start,
			CharEnd:    &end,
			StartMs:    t.StartMs,
			DurationMs: t.DurationMs,
		}
	}
	return steps
}

// fitTimings rescales backend timings so they tile the part duration exactly.
// Backends report timing against their own clock, which rarely matches the
// decoded sample count.
func fitTimings(timings []CharTiming, d time.Duration) []CharTiming {
	totalMs := float64(d) / float64(time.Millisecond)
	var sum float64
	for _, t := range timings {
		if t.DurationMs > 0 {
			sum += t.DurationMs
		}
	}
	out := make([]CharTiming, len(timings))
	copy(out, timings)
	if sum <= 0 {
		each := totalMs / float64(len(out))
		for i := range out {
			out[i].DurationMs = each
		}
	} else {
		scale := totalMs / sum
		for i := range out {
			out[i].DurationMs = math.Max(0, out[i].DurationMs) * scale
		}
	}
	var cursor float64
	for i := range out {
		out[i].StartMs = cursor
		cursor += out[i].DurationMs
	}
	// Absorb rounding into the final character.
	last := &out[len(out)-1]
	last.DurationMs = math.Max(0, totalMs-last.StartMs)
	return out
}

// ErrInconsistentMetadata reports broken duration invariants.
var ErrInconsistentMetadata = errors.New("inconsistent sentence audio metadata")

// Validate checks that step durations sum to their part's duration, that
// parts are contiguous, and that part durations sum to the total.
func (m SentenceAudioMetadata) Validate() error {
	var offset time.Duration
	for i, part := range m.Parts {
		if part.Duration < 0 {
			return fmt.Errorf("%w: part %d has negative duration", ErrInconsistentMetadata, i)
		}
		if part.StartOffset != offset {
			return fmt.Errorf("%w: part %d starts at %v, want %v", ErrInconsistentMetadata, i, part.StartOffset, offset)
		}
		if len(part.Steps) > 0 {
			var sum float64
			for _, s := range part.Steps {
				if s.DurationMs < 0 {
					return fmt.Errorf("%w: part %d has a negative step", ErrInconsistentMetadata, i)
				}
				sum += s.DurationMs
			}
			want := float64(part.Duration) / float64(time.Millisecond)
			if math.Abs(sum-want) > toleranceMs {
				return fmt.Errorf("%w: part %d steps sum to %.3fms, want %.3fms", ErrInconsistentMetadata, i, sum, want)
			}
		}
		offset += part.Duration
	}
	if offset != m.TotalDuration {
		return fmt.Errorf("%w: parts sum to %v, total is %v", ErrInconsistentMetadata, offset, m.TotalDuration)
	}
	return nil
}

// MatchesClip reports whether the total duration equals the clip duration
// within one millisecond.
func (m SentenceAudioMetadata) MatchesClip(d time.Duration) bool {
	diff := m.TotalDuration - d
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Millisecond
}
