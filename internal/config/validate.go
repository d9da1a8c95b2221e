package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateHighlight(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.StagingDir {
		return errors.New("paths.staging_dir must differ from paths.output_dir")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be at least 1")
	}
	if c.Pipeline.QueueSize < 1 {
		return errors.New("pipeline.queue_size must be at least 1")
	}
	if c.Pipeline.BatchSize < 1 {
		return errors.New("pipeline.batch_size must be at least 1")
	}
	if c.Pipeline.QueueTimeoutMillis < 1 {
		return errors.New("pipeline.queue_timeout_ms must be positive")
	}
	if c.Pipeline.ShutdownTimeoutSeconds < 1 {
		return errors.New("pipeline.shutdown_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateHighlight() error {
	switch c.Highlight.Granularity {
	case "word", "char":
	default:
		return fmt.Errorf("highlight.granularity must be word or char, got %q", c.Highlight.Granularity)
	}
	switch c.Highlight.Interpolation {
	case "spline", "linear":
	default:
		return fmt.Errorf("highlight.interpolation must be spline or linear, got %q", c.Highlight.Interpolation)
	}
	if c.Highlight.SyncRatio <= 0 || c.Highlight.SyncRatio > 1 {
		return errors.New("highlight.sync_ratio must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TargetLanguage == "" {
		return errors.New("translation.target_language must be set")
	}
	if c.Translation.kind == TranslationLLM && c.Translation.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/bookvoice/config.toml"
		}
		return fmt.Errorf("translation.api_key is required for the llm backend. Set BOOKVOICE_LLM_API_KEY or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.kind == TTSCommand && c.TTS.Command == "" {
		return errors.New("tts.command must be set for the command backend")
	}
	return nil
}

func (c *Config) validateExport() error {
	for _, f := range c.Export.Formats {
		if _, ok := knownFormats[f]; !ok {
			return fmt.Errorf("export.formats: unsupported format %q", f)
		}
	}
	if len(c.Export.Formats) == 0 && !c.Render.Enabled {
		return errors.New("export.formats must list at least one format when rendering is disabled")
	}
	if strings.ContainsAny(c.Export.BaseName, `/\`) {
		return errors.New("export.base_name must not contain path separators")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
