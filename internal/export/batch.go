package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookvoice/internal/alignment"
	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/timeline"
)

// BatchOptions configures caption construction for a batch.
type BatchOptions struct {
	Size           int
	Timeline       timeline.Options
	TargetLanguage string
	Flags          Flags
}

// Batch accumulates sequenced results until it holds Size sentences.
type Batch struct {
	opts BatchOptions

	start, end int
	written    []WrittenBlock
	captions   []CaptionBlock
	clips      map[string][]audio.Clip
	voices     media.VoiceMetadata
	offset     time.Duration
}

// NewBatch returns an empty batch. Size below 1 becomes 1.
func NewBatch(opts BatchOptions) *Batch {
	if opts.Size < 1 {
		opts.Size = 1
	}
	b := &Batch{opts: opts}
	b.Reset()
	return b
}

// Len returns the number of accumulated sentences.
func (b *Batch) Len() int {
	return len(b.written)
}

// Full reports whether the batch reached its configured size.
func (b *Batch) Full() bool {
	return len(b.written) >= b.opts.Size
}

// Accumulate appends one result and reports whether the batch is now full.
// Results must arrive in sequence order.
func (b *Batch) Accumulate(r *media.MediaResult) bool {
	if r == nil {
		return b.Full()
	}
	if len(b.written) == 0 {
		b.start = r.SentenceNumber
	}
	b.end = r.SentenceNumber

	b.written = append(b.written, WrittenBlock{
		SentenceNumber:  r.SentenceNumber,
		Source:          r.SourceText,
		Translation:     r.TranslatedText,
		Transliteration: r.Transliteration,
		Degraded:        r.Degraded,
	})

	meta := r.AudioMetadata
	if meta == nil {
		built := alignment.BuildSentenceMetadata(r.PartInputs(), alignment.Options{})
		meta = &built
	}
	opts := b.opts.Timeline
	opts.Counts = timeline.NewWordCounts(r.SourceText, r.TranslatedText, r.Transliteration)
	tl := timeline.Build(*meta, opts)
	duration := r.Audio.Duration()
	b.captions = append(b.captions, CaptionBlock{
		SentenceNumber:  r.SentenceNumber,
		Start:           b.offset,
		Duration:        duration,
		Source:          r.SourceText,
		Translation:     r.TranslatedText,
		Transliteration: r.Transliteration,
		Granularity:     tl.Granularity,
		Segments:        timeline.Coalesce(tl.Events),
	})
	b.offset += duration

	b.clips[RoleCombined] = append(b.clips[RoleCombined], r.Audio)
	for _, part := range r.Parts {
		switch part.Kind {
		case alignment.KindOriginal:
			b.clips[media.RoleOriginal] = append(b.clips[media.RoleOriginal], part.Clip)
		case alignment.KindTranslation:
			b.clips[media.RoleTranslation] = append(b.clips[media.RoleTranslation], part.Clip)
		}
	}
	b.voices.Merge(r.Voices)
	return b.Full()
}

// Request builds an export request from the accumulated results.
func (b *Batch) Request() (Request, error) {
	if len(b.written) == 0 {
		return Request{}, fmt.Errorf("batch is empty")
	}
	clips := make(map[string]audio.Clip, len(b.clips))
	for role, parts := range b.clips {
		joined, err := audio.Concat(parts...)
		if err != nil {
			return Request{}, fmt.Errorf("join %s audio: %w", role, err)
		}
		clips[role] = joined
	}
	voices := make(media.VoiceMetadata)
	voices.Merge(b.voices)
	return Request{
		ChunkID:        uuid.NewString(),
		StartSentence:  b.start,
		EndSentence:    b.end,
		WrittenBlocks:  append([]WrittenBlock(nil), b.written...),
		CaptionBlocks:  append([]CaptionBlock(nil), b.captions...),
		Audio:          clips,
		Voices:         voices,
		TargetLanguage: b.opts.TargetLanguage,
		Flags:          b.opts.Flags,
	}, nil
}

// Reset clears the batch.
func (b *Batch) Reset() {
	b.start, b.end = 0, 0
	b.written = nil
	b.captions = nil
	b.clips = make(map[string][]audio.Clip)
	b.voices = make(media.VoiceMetadata)
	b.offset = 0
}
