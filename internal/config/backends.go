package config

import (
	"fmt"
	"strings"
)

// TranslationBackend identifies the translation adapter.
type TranslationBackend string

const (
	// TranslationPassthrough returns the source sentence unchanged.
	TranslationPassthrough TranslationBackend = "passthrough"
	// TranslationLLM calls an OpenRouter-compatible chat completion API.
	TranslationLLM TranslationBackend = "llm"
)

// TTSBackend identifies the speech synthesis adapter.
type TTSBackend string

const (
	// TTSEstimate produces silent clips sized from a reading-speed estimate.
	TTSEstimate TTSBackend = "estimate"
	// TTSCommand runs an external engine that writes a WAV file.
	TTSCommand TTSBackend = "command"
)

// Export format names.
const (
	FormatText       = "text"
	FormatSRT        = "srt"
	FormatVTT        = "vtt"
	FormatHighlights = "highlights"
	FormatAudio      = "audio"
)

var knownFormats = map[string]struct{}{
	FormatText:       {},
	FormatSRT:        {},
	FormatVTT:        {},
	FormatHighlights: {},
	FormatAudio:      {},
}

// ParseTranslationBackend resolves a configured backend name.
func ParseTranslationBackend(value string) (TranslationBackend, error) {
	switch TranslationBackend(strings.ToLower(strings.TrimSpace(value))) {
	case TranslationPassthrough, "":
		return TranslationPassthrough, nil
	case TranslationLLM:
		return TranslationLLM, nil
	default:
		return "", fmt.Errorf("unsupported translation backend %q", value)
	}
}

// ParseTTSBackend resolves a configured backend name.
func ParseTTSBackend(value string) (TTSBackend, error) {
	switch TTSBackend(strings.ToLower(strings.TrimSpace(value))) {
	case TTSEstimate, "":
		return TTSEstimate, nil
	case TTSCommand:
		return TTSCommand, nil
	default:
		return "", fmt.Errorf("unsupported tts backend %q", value)
	}
}
