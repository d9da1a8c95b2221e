package alignment

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestBuildSentenceMetadataConservesDuration(t *testing.T) {
	parts := []PartInput{
		{Kind: KindOriginal, Text: "Hello world", Duration: 900 * time.Millisecond},
		{Kind: KindSilence, Duration: 400 * time.Millisecond},
		{Kind: KindTranslation, Text: "Hallo Welt", Duration: 1100 * time.Millisecond},
	}
	meta := BuildSentenceMetadata(parts, Options{Mode: ModeSpline, Estimate: true})
	if err := meta.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if meta.TotalDuration != 2400*time.Millisecond {
		t.Fatalf("total = %v", meta.TotalDuration)
	}
	if meta.Parts[2].StartOffset != 1300*time.Millisecond {
		t.Fatalf("translation offset = %v", meta.Parts[2].StartOffset)
	}
	if len(meta.Parts[1].Steps) != 0 {
		t.Fatal("silence should not carry steps")
	}
	if len(meta.Parts[2].Steps) != 9 {
		t.Fatalf("translation steps = %d, want 9", len(meta.Parts[2].Steps))
	}
	step := meta.Parts[2].Steps[5]
	if step.Kind != KindTranslation || *step.WordIndex != 1 || *step.CharStart != 6 || *step.CharEnd != 7 {
		t.Fatalf("unexpected step %+v", step)
	}
	if !meta.MatchesClip(2400*time.Millisecond + 500*time.Microsecond) {
		t.Fatal("expected clip match within a millisecond")
	}
}

func TestBuildSentenceMetadataWithoutEstimateLeavesStepsEmpty(t *testing.T) {
	meta := BuildSentenceMetadata([]PartInput{
		{Kind: KindTranslation, Text: "no timing here", Duration: time.Second},
	}, Options{})
	if len(meta.Parts[0].Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(meta.Parts[0].Steps))
	}
	if err := meta.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildSentenceMetadataFitsBackendTiming(t *testing.T) {
	backend := []CharTiming{
		{Char: "h", Index: 0, WordIndex: 0, StartMs: 0, DurationMs: 100},
		{Char: "i", Index: 1, WordIndex: 0, StartMs: 150, DurationMs: 300},
	}
	meta := BuildSentenceMetadata([]PartInput{
		{Kind: KindOriginal, Text: "hi", Duration: 800 * time.Millisecond, Timing: backend},
	}, Options{Estimate: true})
	if err := meta.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	steps := meta.Parts[0].Steps
	if math.Abs(steps[0].DurationMs-200) > 1e-9 || math.Abs(steps[1].StartMs-200) > 1e-9 {
		t.Fatalf("unexpected fitted steps %+v %+v", steps[0], steps[1])
	}
	if backend[1].StartMs != 150 {
		t.Fatal("backend timing must not be mutated")
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	word := 0
	tests := []struct {
		name string
		meta SentenceAudioMetadata
	}{
		{"steps short", SentenceAudioMetadata{
			Parts: []AudioHighlightPart{{Kind: KindOriginal, Duration: time.Second, Steps: []HighlightStep{
				{Kind: KindOriginal, WordIndex: &word, DurationMs: 500},
			}}},
			TotalDuration: time.Second,
		}},
		{"total mismatch", SentenceAudioMetadata{
			Parts:         []AudioHighlightPart{{Kind: KindSilence, Duration: time.Second}},
			TotalDuration: 2 * time.Second,
		}},
		{"gap between parts", SentenceAudioMetadata{
			Parts: []AudioHighlightPart{
				{Kind: KindSilence, Duration: time.Second},
				{Kind: KindSilence, Duration: time.Second, StartOffset: 3 * time.Second},
			},
			TotalDuration: 2 * time.Second,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.meta.Validate(); !errors.Is(err, ErrInconsistentMetadata) {
				t.Fatalf("expected ErrInconsistentMetadata, got %v", err)
			}
		})
	}
}
