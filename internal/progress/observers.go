package progress

import (
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"bookvoice/internal/logging"
)

// LogObserver writes progress to a structured logger. Progress events are
// sampled so long runs log once per percentage bucket.
func LogObserver(logger *slog.Logger, bucket float64) Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	var mu sync.Mutex
	sampler := logging.NewProgressSampler(bucket)
	return ObserverFunc(func(e Event) {
		snap := e.Snapshot
		switch e.Type {
		case EventStart:
			logger.Info("pipeline started", logging.String(logging.FieldEventType, "pipeline_started"))
		case EventTotal:
			logger.Info("sentence total known",
				logging.Int("total", snap.Total),
				logging.String(logging.FieldEventType, "pipeline_total"))
		case EventProgress:
			mu.Lock()
			emit := sampler.ShouldLog(snap.Percent(), "synthesis")
			mu.Unlock()
			if !emit {
				return
			}
			logger.Info("pipeline progress",
				logging.Int("completed", snap.Completed),
				logging.Int("total", snap.Total),
				logging.Float64("throughput", snap.Throughput),
				logging.Duration("eta", snap.ETA),
				logging.String("summary", snap.String()),
				logging.String(logging.FieldEventType, "pipeline_progress"))
		case EventError:
			attrs := []logging.Attr{logging.Int("errors", snap.Errors)}
			for _, key := range []string{MetaError, MetaKind, logging.FieldChunkID, logging.FieldRange} {
				if v, ok := e.Metadata[key]; ok {
					attrs = append(attrs, logging.Any(key, v))
				}
			}
			logging.WarnWithContext(logger, "pipeline error recorded", "pipeline_error", attrs...)
		case EventComplete:
			logger.Info("pipeline finished",
				logging.Int("completed", snap.Completed),
				logging.Int("total", snap.Total),
				logging.Int("errors", snap.Errors),
				logging.Duration("elapsed", snap.Elapsed),
				logging.Any(MetaReason, e.Metadata[MetaReason]),
				logging.Any(MetaForced, e.Metadata[MetaForced]),
				logging.String(logging.FieldEventType, "pipeline_finished"))
		}
	})
}

// BarObserver renders a terminal progress bar on w.
type BarObserver struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBarObserver creates a bar with an unknown total; EventTotal sets it.
func NewBarObserver(w io.Writer, description string) *BarObserver {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("sentences"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return &BarObserver{bar: bar}
}

// Observe updates the bar.
func (b *BarObserver) Observe(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch e.Type {
	case EventTotal:
		if e.Snapshot.HasTotal {
			b.bar.ChangeMax(e.Snapshot.Total)
		}
	case EventProgress:
		_ = b.bar.Set(e.Snapshot.Completed)
	case EventComplete:
		if forced, _ := e.Metadata[MetaForced].(bool); forced {
			_ = b.bar.Exit()
			return
		}
		_ = b.bar.Finish()
	}
}
