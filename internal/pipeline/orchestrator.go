package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/export"
	"bookvoice/internal/logging"
	"bookvoice/internal/media"
	"bookvoice/internal/progress"
)

// Config sizes one run.
type Config struct {
	Workers         int
	QueueSize       int
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	SampleRate      int
	Alignment       alignment.Options
	Batch           export.BatchOptions
}

// Stats summarizes a finished run.
type Stats struct {
	Total          int
	Sequenced      int
	Degraded       int
	Discarded      int
	Exports        []export.Result
	ExportFailures int
	Cancelled      bool
	Forced         bool
	Elapsed        time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSequencedHook calls fn on the sequencing goroutine for every result,
// in order, after its highlight metadata is attached.
func WithSequencedHook(fn func(context.Context, *media.MediaResult)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.onSequenced = append(o.onSequenced, fn)
		}
	}
}

// WithFinalizerOptions forwards options to the run's export finalizer.
func WithFinalizerOptions(opts ...export.FinalizerOption) Option {
	return func(o *Orchestrator) {
		o.finalizerOpts = append(o.finalizerOpts, opts...)
	}
}

// Orchestrator wires producer, workers, sequencer and finalizer for a run.
type Orchestrator struct {
	cfg      Config
	producer *Producer
	synth    media.Synthesizer
	exporter export.BatchExporter
	tracker  *progress.Tracker
	logger   *slog.Logger

	onSequenced   []func(context.Context, *media.MediaResult)
	finalizerOpts []export.FinalizerOption
}

// NewOrchestrator constructs an orchestrator. tracker and logger may be nil.
func NewOrchestrator(cfg Config, producer *Producer, synth media.Synthesizer, exporter export.BatchExporter, tracker *progress.Tracker, logger *slog.Logger, opts ...Option) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 2 * cfg.Workers
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracker == nil {
		tracker = progress.NewTracker(progress.WithLogger(logger))
	}
	o := &Orchestrator{
		cfg:      cfg,
		producer: producer,
		synth:    synth,
		exporter: exporter,
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the mutable state of one Run call.
type run struct {
	*Orchestrator
	batch     *export.Batch
	finalizer *export.Finalizer
	sequenced int
	discarded int
}

// Run processes sentences, numbering them from startNumber. Cancelling ctx
// is a graceful stop: the partial batch is still exported and Run returns
// Stats with Cancelled set and a nil error.
func (o *Orchestrator) Run(ctx context.Context, sentences []string, startNumber int) (Stats, error) {
	started := time.Now()
	o.tracker.Start()

	r := &run{
		Orchestrator: o,
		batch:        export.NewBatch(o.cfg.Batch),
		finalizer:    export.NewFinalizer(o.exporter, o.tracker, o.logger, o.finalizerOpts...),
	}

	tasks := NewBounded[*media.TranslationTask]("tasks", o.cfg.QueueSize, o.cfg.PollInterval, o.logger)
	producerDone := make(chan error, 1)
	go func() {
		producerDone <- o.producer.Run(ctx, sentences, startNumber, tasks, o.cfg.Workers)
	}()
	results, pool := StartWorkers(ctx, tasks, o.cfg.Workers, o.synth, o.tracker,
		WithWorkerLogger(o.logger),
		WithDegradedSampleRate(o.cfg.SampleRate),
		WithResultCapacity(o.cfg.QueueSize),
		WithPollInterval(o.cfg.PollInterval),
	)

	endOfStream := r.sequence(ctx, results)
	cancelled := !endOfStream && ctx.Err() != nil

	if r.batch.Len() > 0 {
		r.flush(context.WithoutCancel(ctx), "final")
	}
	r.join(producerDone, pool)

	stats := Stats{
		Total:          len(sentences),
		Sequenced:      r.sequenced,
		Degraded:       pool.Degraded(),
		Discarded:      r.discarded,
		Exports:        r.finalizer.Results(),
		ExportFailures: r.finalizer.Failures(),
		Cancelled:      cancelled,
		Forced:         cancelled && r.sequenced < len(sentences),
		Elapsed:        time.Since(started),
	}
	reason := "completed"
	if cancelled {
		reason = "cancelled"
	}
	o.tracker.MarkFinished(reason, stats.Forced)
	o.logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_finished"),
		logging.String("reason", reason),
		logging.Int("sequenced", stats.Sequenced),
		logging.Int("total", stats.Total),
		logging.Int("degraded", stats.Degraded),
		logging.Int("discarded", stats.Discarded),
		logging.Int("exports", len(stats.Exports)),
		logging.Int("export_failures", stats.ExportFailures),
		logging.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

// sequence consumes results until end of stream or cancellation. It reports
// whether the end-of-stream sentinel was reached.
func (r *run) sequence(ctx context.Context, results *Bounded[*media.MediaResult]) bool {
	reorder := NewReorder[*media.MediaResult](0)
	for {
		result, err := results.Pop(ctx)
		if err != nil {
			r.discarded += reorder.Pending()
			return false
		}
		if result == nil {
			if pending := reorder.Pending(); pending > 0 {
				r.discarded += pending
				logging.WarnWithContext(r.logger, "stream ended with gaps; buffered results discarded", "reorder_gap",
					logging.Int("next_index", reorder.Next()),
					logging.Int("pending", pending),
					logging.String(logging.FieldImpact, "some sentences were not exported"),
				)
			}
			return true
		}
		ready, err := reorder.Insert(result.Index, result)
		if err != nil {
			logging.WarnWithContext(r.logger, "result rejected by reorder buffer", "reorder_rejected",
				logging.Int(logging.FieldIndex, result.Index),
				logging.Error(err),
			)
			r.tracker.RecordError(err, map[string]any{progress.MetaIndex: result.Index, "stage": "reorder"})
			continue
		}
		for i, item := range ready {
			if ctx.Err() != nil {
				r.discarded += len(ready) - i + reorder.Pending()
				return false
			}
			r.emit(ctx, item)
		}
	}
}

func (r *run) emit(ctx context.Context, result *media.MediaResult) {
	inputs, gap := coverClip(result)
	if gap != "" {
		logging.WarnWithContext(r.logger, "spoken parts do not cover the sentence clip", "clip_parts_gap",
			logging.Int(logging.FieldSentence, result.SentenceNumber),
			logging.String("reason", gap),
			logging.Duration("clip_duration", result.Audio.Duration()),
			logging.String(logging.FieldImpact, "uncovered audio is highlighted as a single part or a hold"),
		)
	}
	meta := alignment.BuildSentenceMetadata(inputs, r.cfg.Alignment)
	if !meta.MatchesClip(result.Audio.Duration()) {
		logging.WarnWithContext(r.logger, "highlight metadata does not match clip duration", "clip_duration_mismatch",
			logging.Int(logging.FieldSentence, result.SentenceNumber),
			logging.Duration("metadata_duration", meta.TotalDuration),
			logging.Duration("clip_duration", result.Audio.Duration()),
			logging.String(logging.FieldImpact, "captions for this sentence may drift"),
		)
	}
	if err := meta.Validate(); err != nil {
		logging.WarnWithContext(r.logger, "inconsistent highlight metadata", "alignment_inconsistent",
			logging.Int(logging.FieldSentence, result.SentenceNumber),
			logging.Error(err),
			logging.String(logging.FieldImpact, "captions for this sentence may drift"),
		)
	}
	result.AudioMetadata = &meta
	r.sequenced++
	for _, hook := range r.onSequenced {
		hook(ctx, result)
	}
	if r.batch.Accumulate(result) {
		r.flush(ctx, "full")
	}
}

// coverClip returns alignment inputs whose durations add up to the sentence
// clip. A clip without parts becomes one spoken part; a shortfall of more
// than a millisecond is padded with trailing silence. The second value names
// the adjustment, if any.
func coverClip(result *media.MediaResult) ([]alignment.PartInput, string) {
	inputs := result.PartInputs()
	clip := result.Audio.Duration()
	if len(inputs) == 0 {
		if clip <= 0 {
			return inputs, ""
		}
		kind, text := alignment.KindTranslation, result.TranslatedText
		if strings.TrimSpace(text) == "" {
			kind, text = alignment.KindOriginal, result.SourceText
		}
		return []alignment.PartInput{{Kind: kind, Text: text, Duration: clip}}, "no parts"
	}
	var covered time.Duration
	for _, in := range inputs {
		covered += in.Duration
	}
	if gap := clip - covered; gap > time.Millisecond {
		return append(inputs, alignment.PartInput{Kind: alignment.KindSilence, Duration: gap}), "trailing audio"
	}
	return inputs, ""
}

// flush submits the batch. The batch is kept when Submit is interrupted so
// the final flush can retry it.
func (r *run) flush(ctx context.Context, trigger string) {
	req, err := r.batch.Request()
	if err != nil {
		logging.ErrorWithContext(r.logger, "batch request failed", "batch_build_failed",
			logging.String("trigger", trigger),
			logging.Error(err),
		)
		r.tracker.RecordError(err, map[string]any{"stage": "batch"})
		r.batch.Reset()
		return
	}
	if err := r.finalizer.Submit(ctx, req); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		logging.ErrorWithContext(r.logger, "batch submit failed", "batch_submit_failed",
			logging.String(logging.FieldRange, req.RangeLabel()),
			logging.Error(err),
		)
		r.tracker.RecordError(err, map[string]any{logging.FieldRange: req.RangeLabel()})
		r.batch.Reset()
		return
	}
	r.logger.Debug("batch submitted",
		logging.String("trigger", trigger),
		logging.String(logging.FieldChunkID, req.ChunkID),
		logging.String(logging.FieldRange, req.RangeLabel()),
	)
	r.batch.Reset()
}

// join waits for the producer, workers and finalizer within the shutdown
// timeout.
func (r *run) join(producerDone <-chan error, pool *Pool) {
	deadline := time.NewTimer(r.cfg.ShutdownTimeout)
	defer deadline.Stop()

	select {
	case err := <-producerDone:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("producer stopped with error", logging.Error(err))
		}
	case <-deadline.C:
		r.shutdownTimedOut("producer")
		return
	}
	select {
	case <-pool.Done():
	case <-deadline.C:
		r.shutdownTimedOut("workers")
		return
	}
	closed := make(chan struct{})
	go func() {
		r.finalizer.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-deadline.C:
		r.shutdownTimedOut("finalizer")
	}
}

func (r *run) shutdownTimedOut(stage string) {
	logging.WarnWithContext(r.logger, "shutdown timed out waiting for stage", "shutdown_timeout",
		logging.String("stage", stage),
		logging.Duration("timeout", r.cfg.ShutdownTimeout),
		logging.String(logging.FieldImpact, "stage abandoned; artifacts of an in-flight batch may be missing"),
	)
}
