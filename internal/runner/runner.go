package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"bookvoice/internal/catalog"
	"bookvoice/internal/config"
	"bookvoice/internal/export"
	"bookvoice/internal/logging"
	"bookvoice/internal/notifications"
	"bookvoice/internal/pipeline"
	"bookvoice/internal/progress"
	"bookvoice/internal/source"
	"bookvoice/internal/staging"
)

// Options configures one run.
type Options struct {
	SourcePath string
	Range      source.Range
	// Progress receives a terminal progress bar when non-nil.
	Progress io.Writer
	// Logger overrides the logger built from config.
	Logger *slog.Logger
	// Notifier overrides the ntfy service built from config.
	Notifier notifications.Service
}

// Summary describes a finished run for the CLI.
type Summary struct {
	RunID       string
	SourcePath  string
	First       int
	Stats       pipeline.Stats
	Snapshot    progress.Snapshot
	CatalogPath string
	OutputDir   string
}

// Run executes the pipeline over opts.SourcePath. SIGINT and SIGTERM stop
// the run gracefully; the partial batch is still exported and the returned
// Summary reports the cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Summary, error) {
	if cfg == nil {
		return Summary{}, fmt.Errorf("config is required")
	}

	ctx, stop := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDirectories(); err != nil {
		return Summary{}, err
	}

	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		stamp := time.Now().UTC().Format("20060102T150405")
		var err error
		logger, err = logging.NewFromConfig(cfg, fmt.Sprintf("bookvoice-%s.log", stamp))
		if err != nil {
			return Summary{}, fmt.Errorf("init logger: %w", err)
		}
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	selection, err := source.ReadSentences(opts.SourcePath, opts.Range)
	if err != nil {
		return Summary{}, err
	}

	staleAge := time.Duration(cfg.Pipeline.StaleStagingHours) * time.Hour
	staging.CleanStale(ctx, cfg.Paths.StagingDir, staleAge, logger)
	staging.CleanIncoming(ctx, cfg.Paths.OutputDir, logger)

	store, err := catalog.OpenConfig(cfg)
	if err != nil {
		return Summary{}, fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	backends, err := buildBackends(cfg, logger)
	if err != nil {
		return Summary{}, err
	}

	tracker := progress.NewTracker(progress.WithLogger(logger))
	tracker.Subscribe(progress.LogObserver(logger, 10))
	if opts.Progress != nil {
		tracker.Subscribe(progress.NewBarObserver(opts.Progress, filepath.Base(opts.SourcePath)))
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	notifyObserver := progress.Async(notifications.NewObserver(notifier, filepath.Base(opts.SourcePath), logger), 64)
	tracker.Subscribe(notifyObserver)
	defer notifyObserver.Close()

	started := time.Now()
	record := catalog.Run{
		ID:             runID,
		SourcePath:     opts.SourcePath,
		SourceLanguage: cfg.Translation.SourceLanguage,
		TargetLanguage: cfg.Translation.TargetLanguage,
		Total:          len(selection.Sentences),
		StartedAt:      started,
	}
	// Catalog rows are written even for a run interrupted before it starts.
	bookkeeping := context.WithoutCancel(ctx)
	if err := store.BeginRun(bookkeeping, record); err != nil {
		return Summary{}, fmt.Errorf("record run: %w", err)
	}

	producer := pipeline.NewProducer(backends.translator, tracker, logger,
		cfg.Translation.SourceLanguage, cfg.Translation.TargetLanguage)
	orchestrator := pipeline.NewOrchestrator(pipelineConfig(cfg, backends.options), producer, backends.synth,
		backends.exporter, tracker, logger,
		pipeline.WithFinalizerOptions(export.WithCommitHook(func(hookCtx context.Context, result export.Result) {
			if err := store.Record(context.WithoutCancel(hookCtx), runID, result); err != nil {
				logging.WarnWithContext(logger, "catalog record failed", "catalog_record_failed",
					logging.String(logging.FieldChunkID, result.ChunkID),
					logging.String(logging.FieldRange, result.RangeLabel),
					logging.Error(err),
					logging.String(logging.FieldImpact, "batch missing from exports list"),
				)
			}
		})),
	)

	logger.Info("run starting",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("source", opts.SourcePath),
		logging.Int("sentences", len(selection.Sentences)),
		logging.Int("first_sentence", selection.First),
		logging.String("translation_backend", string(cfg.TranslationKind())),
		logging.String("tts_backend", backends.synthName),
		logging.Bool("video", cfg.Render.Enabled),
	)

	stats, runErr := orchestrator.Run(ctx, selection.Sentences, selection.First)

	record.Total = stats.Total
	record.Sequenced = stats.Sequenced
	record.Degraded = stats.Degraded
	record.ExportFailures = stats.ExportFailures
	record.Status = catalog.RunCompleted
	if stats.Cancelled {
		record.Status = catalog.RunCancelled
	}
	if err := store.FinishRun(bookkeeping, record); err != nil {
		logging.WarnWithContext(logger, "catalog finish failed", "catalog_finish_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run shows as running in catalog"),
		)
	}

	summary := Summary{
		RunID:       runID,
		SourcePath:  opts.SourcePath,
		First:       selection.First,
		Stats:       stats,
		Snapshot:    tracker.Snapshot(),
		CatalogPath: store.Path(),
		OutputDir:   cfg.Paths.OutputDir,
	}
	return summary, runErr
}

func pipelineConfig(cfg *config.Config, opts backendOptions) pipeline.Config {
	return pipeline.Config{
		Workers:         cfg.Pipeline.Workers,
		QueueSize:       cfg.Pipeline.QueueSize,
		PollInterval:    time.Duration(cfg.Pipeline.QueueTimeoutMillis) * time.Millisecond,
		ShutdownTimeout: time.Duration(cfg.Pipeline.ShutdownTimeoutSeconds) * time.Second,
		SampleRate:      cfg.TTS.SampleRate,
		Alignment:       opts.alignment,
		Batch: export.BatchOptions{
			Size:           cfg.Pipeline.BatchSize,
			Timeline:       opts.timeline,
			TargetLanguage: cfg.Translation.TargetLanguage,
			Flags: export.Flags{
				Formats:    cfg.Export.Formats,
				SplitAudio: cfg.Export.SplitAudio,
				Video:      cfg.Render.Enabled,
			},
		},
	}
}
