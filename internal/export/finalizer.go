package export

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"bookvoice/internal/logging"
	"bookvoice/internal/progress"
)

// ErrFinalizerClosed is returned by Submit after Close.
var ErrFinalizerClosed = errors.New("finalizer closed")

// BatchExporter exports one batch.
type BatchExporter interface {
	Export(ctx context.Context, req Request) (Result, error)
}

// FinalizerOption configures a Finalizer.
type FinalizerOption func(*Finalizer)

// WithCommitHook registers fn to run after every successful export.
func WithCommitHook(fn func(context.Context, Result)) FinalizerOption {
	return func(f *Finalizer) {
		if fn != nil {
			f.onCommit = append(f.onCommit, fn)
		}
	}
}

// WithFailureHook registers fn to run after every failed export.
func WithFailureHook(fn func(context.Context, Request, error)) FinalizerOption {
	return func(f *Finalizer) {
		if fn != nil {
			f.onFailure = append(f.onFailure, fn)
		}
	}
}

type finalizeJob struct {
	ctx context.Context
	req Request
}

// Finalizer runs exports one at a time off the sequencing goroutine.
type Finalizer struct {
	exporter BatchExporter
	tracker  *progress.Tracker
	logger   *slog.Logger

	onCommit  []func(context.Context, Result)
	onFailure []func(context.Context, Request, error)

	jobs chan finalizeJob
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	resultsMu sync.Mutex
	results   []Result
	failures  int
}

// NewFinalizer starts the export goroutine.
func NewFinalizer(exporter BatchExporter, tracker *progress.Tracker, logger *slog.Logger, opts ...FinalizerOption) *Finalizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	f := &Finalizer{
		exporter: exporter,
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "finalizer"),
		jobs:     make(chan finalizeJob, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	go f.loop()
	return f
}

// Submit queues req. It blocks only while an export is running and another
// is already queued. The export itself is not cancelled by ctx, so a batch
// flushed during shutdown still completes.
func (f *Finalizer) Submit(ctx context.Context, req Request) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrFinalizerClosed
	}
	job := finalizeJob{ctx: context.WithoutCancel(ctx), req: req}
	select {
	case f.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches, finishes queued exports and waits.
func (f *Finalizer) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.jobs)
	}
	f.mu.Unlock()
	<-f.done
}

// Results returns the committed batches in export order.
func (f *Finalizer) Results() []Result {
	f.resultsMu.Lock()
	defer f.resultsMu.Unlock()
	return append([]Result(nil), f.results...)
}

// Failures returns the number of failed exports.
func (f *Finalizer) Failures() int {
	f.resultsMu.Lock()
	defer f.resultsMu.Unlock()
	return f.failures
}

func (f *Finalizer) loop() {
	defer close(f.done)
	for job := range f.jobs {
		f.run(job)
	}
}

func (f *Finalizer) run(job finalizeJob) {
	result, err := f.exporter.Export(job.ctx, job.req)
	if err != nil {
		f.resultsMu.Lock()
		f.failures++
		f.resultsMu.Unlock()
		logging.ErrorWithContext(f.logger, "batch export failed", "export_failed",
			logging.String(logging.FieldChunkID, job.req.ChunkID),
			logging.String(logging.FieldRange, job.req.RangeLabel()),
			logging.Error(err),
		)
		if f.tracker != nil {
			f.tracker.RecordError(err, map[string]any{
				logging.FieldChunkID: job.req.ChunkID,
				logging.FieldRange:   job.req.RangeLabel(),
			})
		}
		for _, hook := range f.onFailure {
			hook(job.ctx, job.req, err)
		}
		return
	}
	f.resultsMu.Lock()
	f.results = append(f.results, result)
	f.resultsMu.Unlock()
	for _, hook := range f.onCommit {
		hook(job.ctx, result)
	}
}
