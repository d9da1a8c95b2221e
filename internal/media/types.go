package media

import (
	"context"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/media/audio"
)

// Voice roles used in VoiceMetadata and per-role audio export.
const (
	RoleOriginal    = "original"
	RoleTranslation = "translation"
)

// TranslationTask is one translated sentence waiting for synthesis.
type TranslationTask struct {
	// Index is the 0-based producer sequence and the ordering key.
	Index int
	// SentenceNumber is the 1-based position in the source document.
	SentenceNumber  int
	SourceText      string
	SourceLanguage  string
	TargetLanguage  string
	TranslatedText  string
	Transliteration string
	// TranslationFailed is set when the translator returned its failure
	// marker and TranslatedText holds the marker text.
	TranslationFailed bool
}

// VoiceMetadata maps role -> language -> voice display name.
type VoiceMetadata map[string]map[string]string

// Set records the voice used for role in lang.
func (v VoiceMetadata) Set(role, lang, voice string) {
	if v[role] == nil {
		v[role] = make(map[string]string)
	}
	v[role][lang] = voice
}

// Merge copies every entry of other into v.
func (v VoiceMetadata) Merge(other VoiceMetadata) {
	for role, langs := range other {
		for lang, voice := range langs {
			v.Set(role, lang, voice)
		}
	}
}

// SpokenPart is one synthesized span of a sentence clip.
type SpokenPart struct {
	Kind alignment.PartKind
	Text string
	Clip audio.Clip
}

// TimingTable carries backend character timing keyed by clip handle. The
// worker that created the clips owns the table and passes it along with the
// result.
type TimingTable map[audio.ClipID][]alignment.CharTiming

// Lookup returns the timing recorded for a clip.
func (t TimingTable) Lookup(id audio.ClipID) []alignment.CharTiming {
	if t == nil || id == "" {
		return nil
	}
	return t[id]
}

// MediaResult is the synthesized output for one task.
type MediaResult struct {
	Index           int
	SentenceNumber  int
	SourceText      string
	TargetLanguage  string
	TranslatedText  string
	Transliteration string

	// Audio is the whole sentence clip. Degraded results carry an empty clip.
	Audio  audio.Clip
	Parts  []SpokenPart
	Timing TimingTable
	Voices VoiceMetadata
	Extra  map[string]string

	Degraded bool
	// AudioMetadata is attached by the sequencer after reordering.
	AudioMetadata *alignment.SentenceAudioMetadata
	// Elapsed is the wall time spent synthesizing.
	Elapsed time.Duration
}

// NewResult seeds a result with the task's identifying fields.
func NewResult(task TranslationTask) *MediaResult {
	return &MediaResult{
		Index:           task.Index,
		SentenceNumber:  task.SentenceNumber,
		SourceText:      task.SourceText,
		TargetLanguage:  task.TargetLanguage,
		TranslatedText:  task.TranslatedText,
		Transliteration: task.Transliteration,
		Voices:          make(VoiceMetadata),
		Extra:           make(map[string]string),
	}
}

// Degrade returns a zero-duration silent result for a failed task.
func Degrade(task TranslationTask, rate int, reason string) *MediaResult {
	result := NewResult(task)
	result.Audio = audio.Silence(0, rate)
	result.Degraded = true
	if reason != "" {
		result.Extra["degraded_reason"] = reason
	}
	return result
}

// PartInputs converts the spoken parts into alignment inputs, resolving
// backend timing from the result's timing table.
func (r *MediaResult) PartInputs() []alignment.PartInput {
	inputs := make([]alignment.PartInput, 0, len(r.Parts))
	for _, part := range r.Parts {
		inputs = append(inputs, alignment.PartInput{
			Kind:     part.Kind,
			Text:     part.Text,
			Duration: part.Clip.Duration(),
			Timing:   r.Timing.Lookup(part.Clip.ID),
		})
	}
	return inputs
}

// Synthesizer turns a task into a media result. Implementations may block on
// external engines and must honour ctx.
type Synthesizer interface {
	Synthesize(ctx context.Context, task TranslationTask) (*MediaResult, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, task TranslationTask) (*MediaResult, error)

// Synthesize calls f.
func (f SynthesizerFunc) Synthesize(ctx context.Context, task TranslationTask) (*MediaResult, error) {
	return f(ctx, task)
}
