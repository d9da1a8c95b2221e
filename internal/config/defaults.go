package config

const (
	defaultOutputDir              = "~/.local/share/bookvoice/output"
	defaultStagingDir             = "~/.local/share/bookvoice/staging"
	defaultLogDir                 = "~/.local/share/bookvoice/logs"
	defaultWorkers                = 4
	defaultQueueSize              = 16
	defaultBatchSize              = 10
	defaultQueueTimeoutMillis     = 250
	defaultShutdownTimeoutSeconds = 30
	defaultStaleStagingHours      = 24
	defaultGranularity            = "word"
	defaultInterpolation          = "spline"
	defaultSyncRatio              = 0.9
	defaultSourceLanguage         = "en"
	defaultTargetLanguage         = "fr"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/bookvoice/bookvoice"
	defaultLLMTitle               = "bookvoice"
	defaultLLMTimeoutSeconds      = 60
	defaultLLMRetryAttempts       = 5
	defaultWordsPerMinute         = 160
	defaultSampleRate             = 22050
	defaultPauseMillis            = 400
	defaultTTSTimeoutSeconds      = 120
	defaultBaseName               = "book"
	defaultFFmpeg                 = "ffmpeg"
	defaultFFprobe                = "ffprobe"
	defaultRenderWidth            = 1280
	defaultRenderHeight           = 720
	defaultRenderBackground       = "black"
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Pipeline: Pipeline{
			Workers:                defaultWorkers,
			QueueSize:              defaultQueueSize,
			BatchSize:              defaultBatchSize,
			QueueTimeoutMillis:     defaultQueueTimeoutMillis,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
			StaleStagingHours:      defaultStaleStagingHours,
		},
		Highlight: Highlight{
			Granularity:        defaultGranularity,
			Interpolation:      defaultInterpolation,
			SyncRatio:          defaultSyncRatio,
			EstimateCharTiming: true,
		},
		Translation: Translation{
			Backend:        string(TranslationPassthrough),
			SourceLanguage: defaultSourceLanguage,
			TargetLanguage: defaultTargetLanguage,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		TTS: TTS{
			Backend:        string(TTSEstimate),
			WordsPerMinute: defaultWordsPerMinute,
			SampleRate:     defaultSampleRate,
			SpeakOriginal:  true,
			PauseMillis:    defaultPauseMillis,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Export: Export{
			BaseName: defaultBaseName,
			Formats:  []string{FormatText, FormatSRT, FormatVTT, FormatHighlights, FormatAudio},
		},
		Render: Render{
			FFmpeg:     defaultFFmpeg,
			FFprobe:    defaultFFprobe,
			Width:      defaultRenderWidth,
			Height:     defaultRenderHeight,
			Background: defaultRenderBackground,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
