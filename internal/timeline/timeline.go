package timeline

import (
	"math"
	"strings"
	"time"

	"bookvoice/internal/alignment"
)

// Granularity is the highlight resolution.
type Granularity string

const (
	GranularityWord Granularity = "word"
	GranularityChar Granularity = "char"
)

// WordCounts holds the word totals of each text of a sentence.
type WordCounts struct {
	Original        int
	Translation     int
	Transliteration int
}

// Options controls event construction.
type Options struct {
	// SyncRatio in (0, 1] shortens spoken highlights so they finish ahead of
	// the audio. Zero means 1.
	SyncRatio   float64
	Counts      WordCounts
	Granularity Granularity
}

// Event is one time-boxed highlight state.
type Event struct {
	Duration             time.Duration
	OriginalIndex        int
	TranslationIndex     int
	TransliterationIndex int
	Step                 *alignment.HighlightStep
}

// Segment is a coalesced run of identical events.
type Segment = Event

// Timeline is the result of Build.
type Timeline struct {
	Events []Event
	// Granularity is the granularity actually used.
	Granularity Granularity
}

// Duration sums the event durations.
func (t Timeline) Duration() time.Duration {
	return TotalDuration(t.Events)
}

// TotalDuration sums event durations.
func TotalDuration(events []Event) time.Duration {
	var total time.Duration
	for _, e := range events {
		total += e.Duration
	}
	return total
}

// LegacyWordCounts counts whitespace-delimited words.
func LegacyWordCounts(text string) int {
	return len(strings.Fields(text))
}

// NewWordCounts derives counts from the three texts of a sentence.
func NewWordCounts(original, translation, transliteration string) WordCounts {
	return WordCounts{
		Original:        LegacyWordCounts(original),
		Translation:     LegacyWordCounts(translation),
		Transliteration: LegacyWordCounts(transliteration),
	}
}

type cursor struct {
	counts   WordCounts
	original int
	trans    int
	translit int
}

func (c *cursor) advance(kind alignment.PartKind, revealed int) {
	switch kind {
	case alignment.KindOriginal:
		if revealed > c.original {
			c.original = revealed
		}
	case alignment.KindTranslation:
		if revealed > c.trans {
			c.trans = revealed
		}
		c.translit = c.proportionalTranslit()
	}
}

// proportionalTranslit tracks transliteration words at the same relative
// position as the translation.
func (c *cursor) proportionalTranslit() int {
	if c.counts.Transliteration == 0 {
		return 0
	}
	if c.counts.Translation == 0 {
		return c.counts.Transliteration
	}
	ratio := float64(c.trans) / float64(c.counts.Translation)
	n := int(math.Ceil(ratio*float64(c.counts.Transliteration) - 1e-9))
	return min(max(n, 0), c.counts.Transliteration)
}

func (c *cursor) event(d time.Duration, step *alignment.HighlightStep) Event {
	return Event{
		Duration:             d,
		OriginalIndex:        c.original,
		TranslationIndex:     c.trans,
		TransliterationIndex: c.translit,
		Step:                 step,
	}
}

func (c *cursor) total(kind alignment.PartKind) int {
	switch kind {
	case alignment.KindOriginal:
		return c.counts.Original
	case alignment.KindTranslation:
		return c.counts.Translation
	}
	return 0
}

func (c *cursor) current(kind alignment.PartKind) int {
	switch kind {
	case alignment.KindOriginal:
		return c.original
	case alignment.KindTranslation:
		return c.trans
	}
	return 0
}

// Build converts sentence metadata into highlight events. Parts with steps
// yield one event per step; spoken parts without steps split their duration
// evenly across the words not yet revealed. Every part contributes exactly
// its own duration.
func Build(meta alignment.SentenceAudioMetadata, opts Options) Timeline {
	ratio := opts.SyncRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	gran := negotiate(meta, opts.Granularity)
	counts := opts.Counts
	for _, part := range meta.Parts {
		switch part.Kind {
		case alignment.KindOriginal:
			if counts.Original == 0 {
				counts.Original = LegacyWordCounts(part.Text)
			}
		case alignment.KindTranslation:
			if counts.Translation == 0 {
				counts.Translation = LegacyWordCounts(part.Text)
			}
		}
	}
	cur := &cursor{counts: counts}

	var events []Event
	for _, part := range meta.Parts {
		if part.Duration <= 0 {
			continue
		}
		if part.Kind == alignment.KindSilence || part.Kind == alignment.KindOther {
			events = append(events, cur.event(part.Duration, nil))
			continue
		}
		var partEvents []Event
		if len(part.Steps) > 0 {
			partEvents = stepEvents(cur, part, ratio, gran)
		} else {
			partEvents = legacyEvents(cur, part, ratio)
		}
		events = append(events, partEvents...)
		if hold := part.Duration - TotalDuration(partEvents); hold > 0 {
			events = append(events, cur.event(hold, nil))
		}
	}
	return Timeline{Events: events, Granularity: gran}
}

func negotiate(meta alignment.SentenceAudioMetadata, requested Granularity) Granularity {
	if requested != GranularityChar {
		return GranularityWord
	}
	for _, part := range meta.Parts {
		for _, s := range part.Steps {
			if s.HasCharRange() {
				return GranularityChar
			}
		}
	}
	return GranularityWord
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

func stepEvents(cur *cursor, part alignment.AudioHighlightPart, ratio float64, gran Granularity) []Event {
	events := make([]Event, 0, len(part.Steps))
	var used time.Duration
	for _, s := range part.Steps {
		step := s
		if step.WordIndex != nil {
			cur.advance(part.Kind, *step.WordIndex+1)
		}
		if gran == GranularityWord {
			step.CharStart = nil
			step.CharEnd = nil
		}
		d := msToDuration(step.DurationMs * ratio)
		if used+d > part.Duration {
			d = part.Duration - used
		}
		used += d
		events = append(events, cur.event(d, &step))
	}
	return events
}

// legacyEvents distributes the part across its remaining unrevealed words.
// Every word gets the same share regardless of script or length.
func legacyEvents(cur *cursor, part alignment.AudioHighlightPart, ratio float64) []Event {
	spoken := time.Duration(float64(part.Duration) * ratio)
	remaining := cur.total(part.Kind) - cur.current(part.Kind)
	if remaining <= 0 {
		return []Event{cur.event(spoken, nil)}
	}
	share := spoken / time.Duration(remaining)
	events := make([]Event, 0, remaining)
	start := cur.current(part.Kind)
	for i := 1; i <= remaining; i++ {
		d := share
		if i == remaining {
			d = spoken - share*time.Duration(remaining-1)
		}
		cur.advance(part.Kind, start+i)
		events = append(events, cur.event(d, nil))
	}
	return events
}
