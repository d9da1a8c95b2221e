package runner

import (
	"fmt"
	"log/slog"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/config"
	"bookvoice/internal/export"
	"bookvoice/internal/services/render"
	"bookvoice/internal/services/translate"
	"bookvoice/internal/services/tts"
	"bookvoice/internal/timeline"
)

type backendOptions struct {
	alignment alignment.Options
	timeline  timeline.Options
}

type backends struct {
	translator translate.Translator
	synth      *tts.SentenceSynthesizer
	synthName  string
	exporter   *export.Exporter
	options    backendOptions
}

func buildBackends(cfg *config.Config, logger *slog.Logger) (backends, error) {
	mode, err := alignment.ParseMode(cfg.Highlight.Interpolation)
	if err != nil {
		return backends{}, fmt.Errorf("highlight.interpolation: %w", err)
	}

	translator, err := translate.New(cfg)
	if err != nil {
		return backends{}, err
	}

	speech, err := tts.New(cfg)
	if err != nil {
		return backends{}, err
	}
	synth := tts.NewSentenceSynthesizer(speech, tts.SynthesizerOptions{
		SpeakOriginal:    cfg.TTS.SpeakOriginal,
		Pause:            time.Duration(cfg.TTS.PauseMillis) * time.Millisecond,
		OriginalVoice:    cfg.TTS.OriginalVoice,
		TranslationVoice: cfg.TTS.TranslationVoice,
		SampleRate:       cfg.TTS.SampleRate,
	})

	var renderer export.Renderer
	if cfg.Render.Enabled {
		renderer = render.New(render.Config{
			FFmpeg:     cfg.Render.FFmpeg,
			FFprobe:    cfg.Render.FFprobe,
			Width:      cfg.Render.Width,
			Height:     cfg.Render.Height,
			Background: cfg.Render.Background,
		}, logger)
	}
	exporter := export.NewExporter(export.Options{
		OutputDir:  cfg.Paths.OutputDir,
		StagingDir: cfg.Paths.StagingDir,
		BaseName:   cfg.Export.BaseName,
		SampleRate: cfg.TTS.SampleRate,
	}, renderer, logger)

	return backends{
		translator: translator,
		synth:      synth,
		synthName:  speech.Name(),
		exporter:   exporter,
		options: backendOptions{
			alignment: alignment.Options{Mode: mode, Estimate: cfg.Highlight.EstimateCharTiming},
			timeline: timeline.Options{
				SyncRatio:   cfg.Highlight.SyncRatio,
				Granularity: timeline.Granularity(cfg.Highlight.Granularity),
			},
		},
	}, nil
}
