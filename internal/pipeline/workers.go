package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"bookvoice/internal/logging"
	"bookvoice/internal/media"
	"bookvoice/internal/progress"
)

// WorkerOption customizes StartWorkers.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	logger     *slog.Logger
	sampleRate int
	capacity   int
	poll       time.Duration
}

// WithWorkerLogger attaches a logger to the pool and its result queue.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(c *workerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDegradedSampleRate sets the sample rate of silent clips substituted
// for failed syntheses.
func WithDegradedSampleRate(rate int) WorkerOption {
	return func(c *workerConfig) {
		if rate > 0 {
			c.sampleRate = rate
		}
	}
}

// WithResultCapacity sets the result queue capacity. Defaults to twice the
// worker count.
func WithResultCapacity(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithPollInterval sets the bounded wait used by the result queue.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(c *workerConfig) {
		if d > 0 {
			c.poll = d
		}
	}
}

// Pool is the set of running media workers.
type Pool struct {
	workers  sync.WaitGroup
	done     chan struct{}
	degraded atomic.Int64
	handled  atomic.Int64
}

// Wait blocks until every worker has exited and the end-of-stream sentinel
// has been pushed (or abandoned on cancellation).
func (p *Pool) Wait() {
	<-p.done
}

// Done is closed when Wait would return.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Degraded returns the number of results substituted with silence.
func (p *Pool) Degraded() int { return int(p.degraded.Load()) }

// Handled returns the number of tasks the workers finished.
func (p *Pool) Handled() int { return int(p.handled.Load()) }

// StartWorkers launches count workers reading from tasks. count below 1
// becomes 1. tracker may be nil.
func StartWorkers(ctx context.Context, tasks *Bounded[*media.TranslationTask], count int, synth media.Synthesizer, tracker *progress.Tracker, opts ...WorkerOption) (*Bounded[*media.MediaResult], *Pool) {
	if count < 1 {
		count = 1
	}
	cfg := workerConfig{logger: logging.NewNop(), sampleRate: 22050, capacity: 2 * count}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := logging.NewComponentLogger(cfg.logger, "workers")
	results := NewBounded[*media.MediaResult]("results", cfg.capacity, cfg.poll, logger)
	pool := &Pool{done: make(chan struct{})}

	pool.workers.Add(count)
	for id := range count {
		w := &worker{id: id, tasks: tasks, results: results, synth: synth, tracker: tracker, pool: pool, sampleRate: cfg.sampleRate,
			logger: logger.With(logging.Int(logging.FieldWorker, id))}
		go w.run(ctx)
	}
	go func() {
		defer close(pool.done)
		pool.workers.Wait()
		if err := results.Push(ctx, nil); err != nil {
			logger.Debug("end of stream not delivered", logging.Error(err))
		}
	}()
	return results, pool
}

type worker struct {
	id         int
	tasks      *Bounded[*media.TranslationTask]
	results    *Bounded[*media.MediaResult]
	synth      media.Synthesizer
	tracker    *progress.Tracker
	pool       *Pool
	sampleRate int
	logger     *slog.Logger
}

func (w *worker) run(ctx context.Context) {
	defer w.pool.workers.Done()
	for {
		task, err := w.tasks.Pop(ctx)
		if err != nil {
			w.logger.Debug("worker stopping", logging.Error(err))
			return
		}
		if task == nil {
			w.logger.Debug("worker received shutdown sentinel")
			return
		}
		result := w.synthesize(ctx, *task)
		if err := w.results.Push(ctx, result); err != nil {
			w.logger.Debug("result dropped on shutdown",
				logging.Int(logging.FieldIndex, task.Index),
				logging.Error(err),
			)
			return
		}
		w.pool.handled.Add(1)
		if w.tracker != nil {
			w.tracker.RecordCompletion(task.Index, task.SentenceNumber)
		}
	}
}

func (w *worker) synthesize(ctx context.Context, task media.TranslationTask) (result *media.MediaResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = w.degrade(task, fmt.Errorf("synthesizer panic: %v", r))
		}
	}()
	result, err := w.synth.Synthesize(ctx, task)
	if err == nil && result == nil {
		err = fmt.Errorf("synthesizer returned no result")
	}
	if err != nil {
		return w.degrade(task, err)
	}
	result.Index = task.Index
	result.SentenceNumber = task.SentenceNumber
	if result.Elapsed == 0 {
		result.Elapsed = time.Since(started)
	}
	return result
}

func (w *worker) degrade(task media.TranslationTask, err error) *media.MediaResult {
	w.pool.degraded.Add(1)
	logging.WarnWithContext(w.logger, "synthesis failed; substituting silence", "synthesis_degraded",
		logging.Int(logging.FieldIndex, task.Index),
		logging.Int(logging.FieldSentence, task.SentenceNumber),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the tts backend configuration and logs"),
		logging.String(logging.FieldImpact, "sentence exported without audio"),
	)
	return media.Degrade(task, w.sampleRate, err.Error())
}
