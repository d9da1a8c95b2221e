package tts

import (
	"context"
	"fmt"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/config"
	"bookvoice/internal/media/audio"
)

// Speech is the output of one backend call. Timing is nil when the engine
// reports no character timing.
type Speech struct {
	Clip   audio.Clip
	Timing []alignment.CharTiming
}

// Backend synthesizes text in a voice and language.
type Backend interface {
	Name() string
	Synthesize(ctx context.Context, text, voice, lang string) (Speech, error)
}

// New builds the backend selected by cfg.
func New(cfg *config.Config) (Backend, error) {
	t := cfg.TTS
	switch cfg.TTSKind() {
	case config.TTSEstimate, "":
		return NewEstimate(t.WordsPerMinute, t.SampleRate), nil
	case config.TTSCommand:
		return NewCommand(CommandConfig{
			Binary:     t.Command,
			Args:       t.Args,
			SampleRate: t.SampleRate,
			Timeout:    time.Duration(t.TimeoutSeconds) * time.Second,
			WorkDir:    cfg.Paths.StagingDir,
		})
	default:
		return nil, fmt.Errorf("unsupported tts backend %q", cfg.TTSKind())
	}
}
