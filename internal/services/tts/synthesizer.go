package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
)

// SynthesizerOptions controls sentence composition.
type SynthesizerOptions struct {
	SpeakOriginal    bool
	Pause            time.Duration
	OriginalVoice    string
	TranslationVoice string
	SampleRate       int
}

// SentenceSynthesizer composes sentence clips from a Backend.
type SentenceSynthesizer struct {
	backend Backend
	opts    SynthesizerOptions
}

var _ media.Synthesizer = (*SentenceSynthesizer)(nil)

// NewSentenceSynthesizer wraps backend.
func NewSentenceSynthesizer(backend Backend, opts SynthesizerOptions) *SentenceSynthesizer {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 22050
	}
	return &SentenceSynthesizer{backend: backend, opts: opts}
}

// Synthesize implements media.Synthesizer. The clip is laid out as
// original, pause, translation; a failed translation is not spoken.
func (s *SentenceSynthesizer) Synthesize(ctx context.Context, task media.TranslationTask) (*media.MediaResult, error) {
	started := time.Now()
	result := media.NewResult(task)
	result.Timing = make(media.TimingTable)

	speakOriginal := s.opts.SpeakOriginal && strings.TrimSpace(task.SourceText) != ""
	speakTranslation := !task.TranslationFailed && strings.TrimSpace(task.TranslatedText) != ""

	if speakOriginal {
		if err := s.speak(ctx, result, alignment.KindOriginal, task.SourceText, s.opts.OriginalVoice, task.SourceLanguage, media.RoleOriginal); err != nil {
			return nil, err
		}
	}
	if speakOriginal && speakTranslation && s.opts.Pause > 0 {
		result.Parts = append(result.Parts, media.SpokenPart{
			Kind: alignment.KindSilence,
			Clip: audio.Silence(s.opts.Pause, s.rate(result)),
		})
	}
	if speakTranslation {
		if err := s.speak(ctx, result, alignment.KindTranslation, task.TranslatedText, s.opts.TranslationVoice, task.TargetLanguage, media.RoleTranslation); err != nil {
			return nil, err
		}
	}

	clips := make([]audio.Clip, 0, len(result.Parts))
	for _, part := range result.Parts {
		clips = append(clips, part.Clip)
	}
	combined, err := audio.Concat(clips...)
	if err != nil {
		return nil, fmt.Errorf("compose sentence %d: %w", task.SentenceNumber, err)
	}
	if combined.SampleRate == 0 {
		combined.SampleRate = s.opts.SampleRate
	}
	result.Audio = combined
	result.Elapsed = time.Since(started)
	return result, nil
}

func (s *SentenceSynthesizer) speak(ctx context.Context, result *media.MediaResult, kind alignment.PartKind, text, voice, lang, role string) error {
	speech, err := s.backend.Synthesize(ctx, text, voice, lang)
	if err != nil {
		return fmt.Errorf("synthesize %s: %w", kind, err)
	}
	if speech.Clip.ID == "" {
		speech.Clip.ID = audio.NewClipID()
	}
	if len(speech.Timing) > 0 {
		result.Timing[speech.Clip.ID] = speech.Timing
	}
	result.Parts = append(result.Parts, media.SpokenPart{Kind: kind, Text: text, Clip: speech.Clip})
	name := voice
	if name == "" {
		name = s.backend.Name()
	}
	result.Voices.Set(role, lang, name)
	return nil
}

func (s *SentenceSynthesizer) rate(result *media.MediaResult) int {
	for _, part := range result.Parts {
		if part.Clip.SampleRate > 0 {
			return part.Clip.SampleRate
		}
	}
	return s.opts.SampleRate
}
