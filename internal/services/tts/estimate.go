package tts

import (
	"context"
	"strings"
	"time"

	"bookvoice/internal/media/audio"
)

const minEstimatedSpeech = 250 * time.Millisecond

// Estimate produces silent clips whose length follows a reading-speed
// estimate.
type Estimate struct {
	wordsPerMinute int
	sampleRate     int
}

// NewEstimate returns an estimate backend. Non-positive values fall back to
// 160 words per minute at 22050 Hz.
func NewEstimate(wordsPerMinute, sampleRate int) *Estimate {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 160
	}
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &Estimate{wordsPerMinute: wordsPerMinute, sampleRate: sampleRate}
}

// Name implements Backend.
func (e *Estimate) Name() string { return "estimate" }

// Synthesize implements Backend.
func (e *Estimate) Synthesize(ctx context.Context, text, _, _ string) (Speech, error) {
	if err := ctx.Err(); err != nil {
		return Speech{}, err
	}
	return Speech{Clip: audio.Silence(e.Duration(text), e.sampleRate)}, nil
}

// Duration returns the estimated speaking time for text. Empty text takes no
// time; any spoken text takes at least a quarter second.
func (e *Estimate) Duration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	d := time.Duration(words) * time.Minute / time.Duration(e.wordsPerMinute)
	return max(d, minEstimatedSpeech)
}
