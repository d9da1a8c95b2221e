// Package render turns a batch's WAV and highlight captions into a captioned
// video with ffmpeg and validates the result with ffprobe. Captions carrying
// highlight segments are burned as word-by-word ASS cues; a job without
// caption blocks falls back to its SRT.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bookvoice/internal/export"
	"bookvoice/internal/logging"
	"bookvoice/internal/media/ffprobe"
	"bookvoice/internal/services"
)

// Config holds the ffmpeg invocation settings.
type Config struct {
	FFmpeg     string
	FFprobe    string
	Width      int
	Height     int
	Background string
}

// Renderer is the ffmpeg implementation of export.Renderer.
type Renderer struct {
	cfg    Config
	logger *slog.Logger
	run    func(ctx context.Context, binary string, args ...string) ([]byte, error)
	probe  func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

var _ export.Renderer = (*Renderer)(nil)

// New constructs a renderer.
func New(cfg Config, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(cfg.FFmpeg) == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobe) == "" {
		cfg.FFprobe = "ffprobe"
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	if strings.TrimSpace(cfg.Background) == "" {
		cfg.Background = "black"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		run:    runCommand,
		probe:  ffprobe.Inspect,
	}
}

// RenderAndEncode implements export.Renderer.
func (r *Renderer) RenderAndEncode(ctx context.Context, job export.RenderJob) (string, error) {
	if job.AudioPath == "" || job.OutputPath == "" || (job.SubtitlePath == "" && len(job.Captions) == 0) {
		return "", services.Wrap(services.ErrValidation, "render", "prepare", "audio, captions and output paths are required", nil)
	}
	if job.Duration <= 0 {
		return "", services.Wrap(services.ErrValidation, "render", "prepare", "batch has no audio", nil)
	}
	subtitles := job.SubtitlePath
	if len(job.Captions) > 0 {
		subtitles = highlightPath(job.OutputPath)
		if err := writeHighlightASS(subtitles, job, r.cfg.Width, r.cfg.Height); err != nil {
			return "", services.Wrap(services.ErrTransient, "render", "subtitles", "", err)
		}
	}
	args := r.args(job, subtitles)
	started := time.Now()
	if output, err := r.run(ctx, r.cfg.FFmpeg, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "render", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	if err := r.validate(ctx, job); err != nil {
		return "", err
	}
	r.logger.Info("batch video rendered",
		logging.String(logging.FieldChunkID, job.ChunkID),
		logging.String("output", job.OutputPath),
		logging.Duration("elapsed", time.Since(started)),
	)
	return job.OutputPath, nil
}

// highlightPath places the karaoke subtitles next to the video output.
func highlightPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".highlight.ass"
}

func (r *Renderer) args(job export.RenderJob, subtitles string) []string {
	seconds := strconv.FormatFloat(job.Duration.Seconds(), 'f', 3, 64)
	background := fmt.Sprintf("color=c=%s:s=%dx%d:d=%s", r.cfg.Background, r.cfg.Width, r.cfg.Height, seconds)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", background,
		"-i", job.AudioPath,
		"-vf", "subtitles=" + escapeFilterPath(subtitles),
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		job.OutputPath,
	}
}

func (r *Renderer) validate(ctx context.Context, job export.RenderJob) error {
	result, err := r.probe(ctx, r.cfg.FFprobe, job.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "ffprobe", "", err)
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		return services.Wrap(services.ErrValidation, "render", "validate",
			fmt.Sprintf("expected 1 video and 1 audio stream, got %d and %d", result.VideoStreamCount(), result.AudioStreamCount()), nil)
	}
	if result.DurationSeconds() <= 0 {
		return services.Wrap(services.ErrValidation, "render", "validate", "rendered video has no duration", nil)
	}
	return nil
}

// escapeFilterPath quotes a path for use inside an ffmpeg filter argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`)
	return "'" + replacer.Replace(path) + "'"
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
