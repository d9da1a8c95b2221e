package timeline

import "bookvoice/internal/alignment"

type eventKey struct {
	original, translation, translit int
	hasRange                        bool
	charStart, charEnd              int
	kind                            alignment.PartKind
}

func keyOf(e Event) eventKey {
	k := eventKey{
		original:    e.OriginalIndex,
		translation: e.TranslationIndex,
		translit:    e.TransliterationIndex,
	}
	if e.Step != nil {
		k.kind = e.Step.Kind
		if e.Step.HasCharRange() {
			k.hasRange = true
			k.charStart = *e.Step.CharStart
			k.charEnd = *e.Step.CharEnd
		}
	}
	return k
}

// Coalesce merges consecutive events that render identically, summing their
// durations. The first event of each run keeps its step.
func Coalesce(events []Event) []Segment {
	if len(events) == 0 {
		return nil
	}
	out := make([]Segment, 0, len(events))
	out = append(out, events[0])
	last := keyOf(events[0])
	for _, e := range events[1:] {
		k := keyOf(e)
		if k == last {
			out[len(out)-1].Duration += e.Duration
			continue
		}
		out = append(out, e)
		last = k
	}
	return out
}
