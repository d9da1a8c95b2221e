package timeline

import (
	"reflect"
	"testing"
	"time"

	"bookvoice/internal/alignment"
)

func TestCoalesceMergesIdenticalNeighbours(t *testing.T) {
	events := []Event{
		{Duration: 100 * time.Millisecond, OriginalIndex: 1},
		{Duration: 50 * time.Millisecond, OriginalIndex: 1},
		{Duration: 70 * time.Millisecond, OriginalIndex: 2},
		{Duration: 30 * time.Millisecond, OriginalIndex: 1},
	}
	got := Coalesce(events)
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	if got[0].Duration != 150*time.Millisecond {
		t.Fatalf("merged duration = %v", got[0].Duration)
	}
	if got[2].OriginalIndex != 1 {
		t.Fatal("non-adjacent duplicates must not merge")
	}
}

func TestCoalesceDistinguishesCharRangesAndKind(t *testing.T) {
	a, b := 0, 1
	c, d := 1, 2
	events := []Event{
		{Duration: 1, Step: &alignment.HighlightStep{Kind: alignment.KindOriginal, CharStart: &a, CharEnd: &b}},
		{Duration: 1, Step: &alignment.HighlightStep{Kind: alignment.KindOriginal, CharStart: &c, CharEnd: &d}},
		{Duration: 1, Step: &alignment.HighlightStep{Kind: alignment.KindTranslation, CharStart: &c, CharEnd: &d}},
	}
	if got := Coalesce(events); len(got) != 3 {
		t.Fatalf("expected no merges, got %d segments", len(got))
	}
}

func TestCoalesceIsIdempotentAndConserving(t *testing.T) {
	meta := estimatedMeta(t)
	for _, gran := range []Granularity{GranularityWord, GranularityChar} {
		events := Build(meta, Options{SyncRatio: 0.9, Granularity: gran}).Events
		once := Coalesce(events)
		twice := Coalesce(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("%s: coalesce not idempotent", gran)
		}
		if TotalDuration(once) != TotalDuration(events) {
			t.Fatalf("%s: duration changed %v -> %v", gran, TotalDuration(events), TotalDuration(once))
		}
		first, last := events[0], events[len(events)-1]
		if once[0].OriginalIndex != first.OriginalIndex || once[len(once)-1].TranslationIndex != last.TranslationIndex {
			t.Fatalf("%s: boundary indices changed", gran)
		}
		if len(once) >= len(events) && gran == GranularityWord {
			t.Fatalf("%s: expected word mode to reduce events (%d -> %d)", gran, len(events), len(once))
		}
	}
}

func TestCoalesceEmpty(t *testing.T) {
	if Coalesce(nil) != nil {
		t.Fatal("expected nil for no events")
	}
}
