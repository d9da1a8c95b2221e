package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Pipeline contains worker pool and queue sizing.
type Pipeline struct {
	Workers                int `toml:"workers"`
	QueueSize              int `toml:"queue_size"`
	BatchSize              int `toml:"batch_size"`
	QueueTimeoutMillis     int `toml:"queue_timeout_ms"`
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
	StaleStagingHours      int `toml:"stale_staging_hours"`
}

// Highlight contains caption timing settings.
type Highlight struct {
	// Granularity is "word" or "char". Char falls back to word when no
	// character timing exists.
	Granularity string `toml:"granularity"`
	// Interpolation is "spline" or "linear".
	Interpolation string `toml:"interpolation"`
	// SyncRatio scales spoken highlight durations so highlighting finishes
	// slightly ahead of the audio. Range (0, 1].
	SyncRatio float64 `toml:"sync_ratio"`
	// EstimateCharTiming derives per-character timing from clip durations
	// when the speech backend reports none.
	EstimateCharTiming bool `toml:"estimate_char_timing"`
}

// Translation contains translation backend settings.
type Translation struct {
	Backend        string `toml:"backend"`
	SourceLanguage string `toml:"source_language"`
	TargetLanguage string `toml:"target_language"`
	Transliterate  bool   `toml:"transliterate"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`

	kind TranslationBackend
}

// TTS contains speech synthesis settings.
type TTS struct {
	Backend          string   `toml:"backend"`
	Command          string   `toml:"command"`
	Args             []string `toml:"args"`
	OriginalVoice    string   `toml:"original_voice"`
	TranslationVoice string   `toml:"translation_voice"`
	WordsPerMinute   int      `toml:"words_per_minute"`
	SampleRate       int      `toml:"sample_rate"`
	SpeakOriginal    bool     `toml:"speak_original"`
	PauseMillis      int      `toml:"pause_ms"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`

	kind TTSBackend
}

// Export contains batch artifact settings.
type Export struct {
	BaseName   string   `toml:"base_name"`
	Formats    []string `toml:"formats"`
	SplitAudio bool     `toml:"split_audio"`
}

// Render contains video rendering settings.
type Render struct {
	Enabled    bool   `toml:"enabled"`
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bookvoice.
//
// Configuration sections by subsystem:
//   - Paths: output, staging, and log directories
//   - Pipeline: worker count, queue bounds, batch size, timeouts
//   - Highlight: caption granularity, interpolation, sync ratio
//   - Translation: translation backend and languages
//   - TTS: speech backend, voices, pacing
//   - Export: artifact base name and formats
//   - Render: optional ffmpeg video rendering
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Highlight     Highlight     `toml:"highlight"`
	Translation   Translation   `toml:"translation"`
	TTS           TTS           `toml:"tts"`
	Export        Export        `toml:"export"`
	Render        Render        `toml:"render"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookvoice/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bookvoice.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Normalize trims values, applies fallbacks and resolves backend kinds.
// Load calls it; configs built in code must call it before use.
func (c *Config) Normalize() error {
	return c.normalize()
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TranslationKind returns the resolved translation backend.
func (c *Config) TranslationKind() TranslationBackend {
	return c.Translation.kind
}

// TTSKind returns the resolved speech backend.
func (c *Config) TTSKind() TTSBackend {
	return c.TTS.kind
}

// CatalogPath returns the export catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.LogDir, "catalog.db")
}

// HasFormat reports whether the export format list contains name.
func (c *Config) HasFormat(name string) bool {
	return slices.Contains(c.Export.Formats, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
