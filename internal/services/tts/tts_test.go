package tts

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/config"
	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/services"
)

func TestEstimateDuration(t *testing.T) {
	est := NewEstimate(300, 1000)
	tests := []struct {
		name string
		text string
		want time.Duration
	}{
		{"empty", "   ", 0},
		{"short sentence floors", "Hi", minEstimatedSpeech},
		{"four words", "one two three four", 800 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := est.Duration(tt.text); got != tt.want {
				t.Fatalf("Duration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
	speech, err := est.Synthesize(context.Background(), "one two three four", "", "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if speech.Clip.Duration() != 800*time.Millisecond || speech.Clip.SampleRate != 1000 {
		t.Fatalf("unexpected clip %v at %d Hz", speech.Clip.Duration(), speech.Clip.SampleRate)
	}
}

func TestEstimateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEstimate(0, 0).Synthesize(ctx, "hello", "", "en"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExpandArgs(t *testing.T) {
	args, usesText := expandArgs(
		[]string{"--model", "{voice}.onnx", "--lang={lang}", "-f", "{output}"},
		placeholders{text: "hi", voice: "en_US-amy", lang: "en", output: "/tmp/x.wav"},
	)
	want := []string{"--model", "en_US-amy.onnx", "--lang=en", "-f", "/tmp/x.wav"}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
	if usesText {
		t.Fatal("expected stdin mode without {text}")
	}
	if _, usesText := expandArgs([]string{"{text}"}, placeholders{text: "hi"}); !usesText {
		t.Fatal("expected {text} to be detected")
	}
}

func TestExpandArgsKeepsPlaceholderTextInValues(t *testing.T) {
	p := placeholders{text: "say {lang} to {output}", voice: "{text}", lang: "de", output: "/tmp/o.wav"}
	for range 50 {
		args, _ := expandArgs([]string{"--text", "{text}", "--voice={voice}", "{lang}:{output}"}, p)
		want := []string{"--text", "say {lang} to {output}", "--voice={text}", "de:/tmp/o.wav"}
		for i := range want {
			if args[i] != want[i] {
				t.Fatalf("arg %d = %q, want %q", i, args[i], want[i])
			}
		}
	}
}

func TestCommandReadsEngineOutput(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "voice.wav")
	if err := audio.WriteWAVFile(src, audio.FromSamples(8000, make([]int16, 4000))); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	cmd, err := NewCommand(CommandConfig{Binary: "cp", Args: []string{src, "{output}"}, SampleRate: 8000, WorkDir: dir})
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	speech, err := cmd.Synthesize(context.Background(), "hello", "amy", "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if speech.Clip.Duration() != 500*time.Millisecond {
		t.Fatalf("unexpected duration %v", speech.Clip.Duration())
	}

	if _, err := (&Command{cfg: CommandConfig{Binary: "cp", Args: []string{src, "{output}"}, SampleRate: 16000, WorkDir: dir}}).
		Synthesize(context.Background(), "hello", "", "en"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected sample rate mismatch to be a configuration error, got %v", err)
	}
}

func TestCommandFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	cmd, err := NewCommand(CommandConfig{Binary: "false", Args: []string{"{output}"}, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if _, err := cmd.Synthesize(context.Background(), "hello", "", "en"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNewCommandRequiresBinary(t *testing.T) {
	if _, err := NewCommand(CommandConfig{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewDefaultsToEstimate(t *testing.T) {
	cfg := config.Default()
	backend, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if backend.Name() != "estimate" {
		t.Fatalf("unexpected backend %q", backend.Name())
	}
}

type timedBackend struct{}

func (timedBackend) Name() string { return "timed" }

func (timedBackend) Synthesize(_ context.Context, text, _, _ string) (Speech, error) {
	clip := audio.Silence(time.Second, 1000)
	timing := alignment.AlignCharacters(time.Second, text, alignment.ModeLinear)
	return Speech{Clip: clip, Timing: timing}, nil
}

func TestSentenceSynthesizerComposesParts(t *testing.T) {
	synth := NewSentenceSynthesizer(timedBackend{}, SynthesizerOptions{
		SpeakOriginal:    true,
		Pause:            250 * time.Millisecond,
		TranslationVoice: "Amelie",
		SampleRate:       1000,
	})
	task := media.TranslationTask{
		Index: 3, SentenceNumber: 4,
		SourceText: "Hello world", SourceLanguage: "en",
		TranslatedText: "Bonjour le monde", TargetLanguage: "fr",
	}
	result, err := synth.Synthesize(context.Background(), task)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.Index != 3 || result.SentenceNumber != 4 {
		t.Fatalf("identity not preserved: %+v", result)
	}
	if got := result.Audio.Duration(); got != 2250*time.Millisecond {
		t.Fatalf("unexpected sentence duration %v", got)
	}
	kinds := []alignment.PartKind{alignment.KindOriginal, alignment.KindSilence, alignment.KindTranslation}
	if len(result.Parts) != len(kinds) {
		t.Fatalf("expected %d parts, got %d", len(kinds), len(result.Parts))
	}
	for i, kind := range kinds {
		if result.Parts[i].Kind != kind {
			t.Fatalf("part %d kind = %q, want %q", i, result.Parts[i].Kind, kind)
		}
	}
	if len(result.Timing) != 2 {
		t.Fatalf("expected timing for both spoken parts, got %d", len(result.Timing))
	}
	if result.Voices[media.RoleTranslation]["fr"] != "Amelie" {
		t.Fatalf("unexpected translation voice: %v", result.Voices)
	}
	if result.Voices[media.RoleOriginal]["en"] != "timed" {
		t.Fatalf("expected backend name as fallback voice: %v", result.Voices)
	}
	inputs := result.PartInputs()
	if len(inputs[0].Timing) == 0 || len(inputs[1].Timing) != 0 {
		t.Fatalf("unexpected part timing resolution: %+v", inputs)
	}
}

func TestSentenceSynthesizerSkipsFailedTranslation(t *testing.T) {
	synth := NewSentenceSynthesizer(timedBackend{}, SynthesizerOptions{SpeakOriginal: true, Pause: time.Second, SampleRate: 1000})
	result, err := synth.Synthesize(context.Background(), media.TranslationTask{
		SourceText: "Hello", TranslatedText: "[translation unavailable]", TranslationFailed: true,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(result.Parts) != 1 || result.Audio.Duration() != time.Second {
		t.Fatalf("expected only the original part, got %d parts and %v", len(result.Parts), result.Audio.Duration())
	}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Synthesize(context.Context, string, string, string) (Speech, error) {
	return Speech{}, errors.New("engine crashed")
}

func TestSentenceSynthesizerPropagatesErrors(t *testing.T) {
	synth := NewSentenceSynthesizer(failingBackend{}, SynthesizerOptions{})
	if _, err := synth.Synthesize(context.Background(), media.TranslationTask{TranslatedText: "Bonjour"}); err == nil {
		t.Fatal("expected error")
	}
}
