package translate

import (
	"context"
	"fmt"
	"strings"

	"bookvoice/internal/config"
	"bookvoice/internal/language"
)

// FailureMarker replaces the translated text of a sentence whose
// translation failed.
const FailureMarker = "[translation unavailable]"

// IsFailure reports whether text is the failure marker.
func IsFailure(text string) bool {
	return strings.TrimSpace(text) == FailureMarker
}

// Output is the result of one translation.
type Output struct {
	Text            string
	Transliteration string
}

// Translator translates one sentence.
type Translator interface {
	Translate(ctx context.Context, sentence, sourceLanguage, targetLanguage string) (Output, error)
}

// Passthrough returns the source sentence as its own translation.
type Passthrough struct{}

// Translate implements Translator.
func (Passthrough) Translate(_ context.Context, sentence, _, _ string) (Output, error) {
	return Output{Text: sentence}, nil
}

// New builds the translator selected by cfg.
func New(cfg *config.Config) (Translator, error) {
	switch cfg.TranslationKind() {
	case config.TranslationPassthrough, "":
		return Passthrough{}, nil
	case config.TranslationLLM:
		t := cfg.Translation
		return NewLLM(LLMConfig{
			APIKey:         t.APIKey,
			BaseURL:        t.BaseURL,
			Model:          t.Model,
			Referer:        t.Referer,
			Title:          t.Title,
			TimeoutSeconds: t.TimeoutSeconds,
			Transliterate:  t.Transliterate && language.NonLatinScript(t.TargetLanguage),
		}, WithRetryMaxAttempts(t.RetryAttempts)), nil
	default:
		return nil, fmt.Errorf("unsupported translation backend %q", cfg.TranslationKind())
	}
}
