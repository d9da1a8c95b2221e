package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"bookvoice/internal/media/audio"
	"bookvoice/internal/services"
)

// CommandConfig describes an external speech engine invocation.
type CommandConfig struct {
	Binary     string
	Args       []string
	SampleRate int
	Timeout    time.Duration
	// WorkDir holds the temporary WAV files. Defaults to os.TempDir.
	WorkDir string
}

// Command runs an external engine per call.
type Command struct {
	cfg CommandConfig
}

// NewCommand validates cfg and returns a command backend.
func NewCommand(cfg CommandConfig) (*Command, error) {
	cfg.Binary = strings.TrimSpace(cfg.Binary)
	if cfg.Binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "command", "tts.command must be set", nil)
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{"--output_file", "{output}"}
	}
	return &Command{cfg: cfg}, nil
}

// Name implements Backend.
func (c *Command) Name() string { return filepath.Base(c.cfg.Binary) }

// Synthesize implements Backend. When no argument references {text} the
// text is written to the engine's stdin.
func (c *Command) Synthesize(ctx context.Context, text, voice, lang string) (Speech, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Speech{Clip: audio.Silence(0, c.cfg.SampleRate)}, nil
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	dir := c.cfg.WorkDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Speech{}, fmt.Errorf("tts work dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, "tts-*.wav")
	if err != nil {
		return Speech{}, fmt.Errorf("tts temp file: %w", err)
	}
	output := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(output) }()

	args, usesText := expandArgs(c.cfg.Args, placeholders{text: text, voice: voice, lang: lang, output: output})
	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...) //nolint:gosec
	if !usesText {
		cmd.Stdin = strings.NewReader(text + "\n")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return Speech{}, services.Wrap(services.ErrTimeout, "tts", c.Name(), "engine timed out", err)
		}
		detail := strings.TrimSpace(stderr.String())
		return Speech{}, services.Wrap(services.ErrExternalTool, "tts", c.Name(), detail, err)
	}

	clip, err := audio.ReadWAVFile(output)
	if err != nil {
		return Speech{}, services.Wrap(services.ErrValidation, "tts", c.Name(), "read engine output", err)
	}
	if c.cfg.SampleRate > 0 && clip.SampleRate != c.cfg.SampleRate {
		return Speech{}, services.Wrap(services.ErrConfiguration, "tts", c.Name(),
			fmt.Sprintf("engine wrote %d Hz, tts.sample_rate is %d", clip.SampleRate, c.cfg.SampleRate), nil)
	}
	return Speech{Clip: clip}, nil
}

type placeholders struct {
	text, voice, lang, output string
}

// expandArgs substitutes every placeholder in a single pass, so values that
// themselves contain placeholder text are left as written.
func expandArgs(args []string, p placeholders) ([]string, bool) {
	replacer := strings.NewReplacer(
		"{text}", p.text,
		"{voice}", p.voice,
		"{lang}", p.lang,
		"{output}", p.output,
	)
	out := make([]string, len(args))
	usesText := false
	for i, arg := range args {
		if strings.Contains(arg, "{text}") {
			usesText = true
		}
		out[i] = replacer.Replace(arg)
	}
	return out, usesText
}
