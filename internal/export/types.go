package export

import (
	"fmt"
	"slices"
	"time"

	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/timeline"
)

// RoleCombined keys the full sentence audio in Request.Audio.
const RoleCombined = "combined"

// WrittenBlock is the plain-text record of one sentence.
type WrittenBlock struct {
	SentenceNumber  int
	Source          string
	Translation     string
	Transliteration string
	Degraded        bool
}

// CaptionBlock is one sentence's caption with its highlight segments.
// Start is the offset of the sentence within the batch audio.
type CaptionBlock struct {
	SentenceNumber  int
	Start           time.Duration
	Duration        time.Duration
	Source          string
	Translation     string
	Transliteration string
	Granularity     timeline.Granularity
	Segments        []timeline.Segment
}

// End returns the caption end offset.
func (c CaptionBlock) End() time.Duration {
	return c.Start + c.Duration
}

// Flags selects the artifacts an export produces.
type Flags struct {
	Formats    []string
	SplitAudio bool
	Video      bool
}

// Has reports whether format is requested.
func (f Flags) Has(format string) bool {
	return slices.Contains(f.Formats, format)
}

// Request describes one batch to export.
type Request struct {
	ChunkID        string
	StartSentence  int
	EndSentence    int
	WrittenBlocks  []WrittenBlock
	CaptionBlocks  []CaptionBlock
	Audio          map[string]audio.Clip
	Voices         media.VoiceMetadata
	TargetLanguage string
	Flags          Flags
}

// RangeLabel returns "start-end".
func (r Request) RangeLabel() string {
	return RangeLabel(r.StartSentence, r.EndSentence)
}

// Result describes a committed batch.
type Result struct {
	ChunkID       string
	RangeLabel    string
	StartSentence int
	EndSentence   int
	Artifacts     []string
	CommittedAt   time.Time
}

// RangeLabel formats a sentence range.
func RangeLabel(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

// ArtifactName builds "{start}-{end}_{base}.{ext}".
func ArtifactName(start, end int, base, ext string) string {
	return fmt.Sprintf("%s_%s.%s", RangeLabel(start, end), base, ext)
}
