package config

import (
	"fmt"
	"os"
	"strings"

	"bookvoice/internal/language"
	"bookvoice/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	c.normalizeHighlight()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslation() error {
	kind, err := ParseTranslationBackend(c.Translation.Backend)
	if err != nil {
		return fmt.Errorf("translation.backend: %w", err)
	}
	c.Translation.kind = kind
	c.Translation.Backend = string(kind)

	if strings.TrimSpace(c.Translation.APIKey) == "" {
		for _, key := range []string{"BOOKVOICE_LLM_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Translation.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = defaultLLMBaseURL
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" {
		c.Translation.Model = defaultLLMModel
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.Translation.RetryAttempts <= 0 {
		c.Translation.RetryAttempts = defaultLLMRetryAttempts
	}
	c.Translation.SourceLanguage = language.Canonical(c.Translation.SourceLanguage)
	c.Translation.TargetLanguage = language.Canonical(c.Translation.TargetLanguage)
	return nil
}

func (c *Config) normalizeTTS() error {
	kind, err := ParseTTSBackend(c.TTS.Backend)
	if err != nil {
		return fmt.Errorf("tts.backend: %w", err)
	}
	c.TTS.kind = kind
	c.TTS.Backend = string(kind)
	c.TTS.Command = strings.TrimSpace(c.TTS.Command)
	if c.TTS.WordsPerMinute <= 0 {
		c.TTS.WordsPerMinute = defaultWordsPerMinute
	}
	if c.TTS.SampleRate <= 0 {
		c.TTS.SampleRate = defaultSampleRate
	}
	if c.TTS.PauseMillis < 0 {
		c.TTS.PauseMillis = 0
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeHighlight() {
	c.Highlight.Granularity = strings.ToLower(strings.TrimSpace(c.Highlight.Granularity))
	if c.Highlight.Granularity == "" {
		c.Highlight.Granularity = defaultGranularity
	}
	c.Highlight.Interpolation = strings.ToLower(strings.TrimSpace(c.Highlight.Interpolation))
	if c.Highlight.Interpolation == "" {
		c.Highlight.Interpolation = defaultInterpolation
	}
	if c.Highlight.SyncRatio == 0 {
		c.Highlight.SyncRatio = defaultSyncRatio
	}
}

func (c *Config) normalizeExport() {
	c.Export.BaseName = textutil.SanitizeFileName(c.Export.BaseName)
	if c.Export.BaseName == "" {
		c.Export.BaseName = defaultBaseName
	}
	formats := make([]string, 0, len(c.Export.Formats))
	seen := make(map[string]struct{}, len(c.Export.Formats))
	for _, f := range c.Export.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		formats = append(formats, f)
	}
	c.Export.Formats = formats
	if strings.TrimSpace(c.Render.FFmpeg) == "" {
		c.Render.FFmpeg = defaultFFmpeg
	}
	if strings.TrimSpace(c.Render.FFprobe) == "" {
		c.Render.FFprobe = defaultFFprobe
	}
	if c.Render.Width <= 0 {
		c.Render.Width = defaultRenderWidth
	}
	if c.Render.Height <= 0 {
		c.Render.Height = defaultRenderHeight
	}
	if strings.TrimSpace(c.Render.Background) == "" {
		c.Render.Background = defaultRenderBackground
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
