package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookvoice/internal/logging"
	"bookvoice/internal/progress"
)

// Observer forwards progress events to a Service: export failures as they
// happen and one completion or cancellation message at the end.
type Observer struct {
	svc     Service
	source  string
	logger  *slog.Logger
	timeout time.Duration
}

// NewObserver builds an observer for a run over source.
func NewObserver(svc Service, source string, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Observer{svc: svc, source: source, logger: logging.NewComponentLogger(logger, "notifications"), timeout: 15 * time.Second}
}

// Observe implements progress.Observer.
func (o *Observer) Observe(e progress.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	var err error
	switch e.Type {
	case progress.EventError:
		label, isExport := e.Metadata[logging.FieldRange].(string)
		if !isExport {
			return
		}
		msg, _ := e.Metadata[progress.MetaError].(string)
		err = o.svc.NotifyExportFailed(ctx, label, errors.New(msg))
	case progress.EventComplete:
		summary := RunSummary{
			Source:    o.source,
			Completed: e.Snapshot.Completed,
			Total:     e.Snapshot.Total,
			Errors:    e.Snapshot.Errors,
			Duration:  e.Snapshot.Elapsed,
		}
		if forced, _ := e.Metadata[progress.MetaForced].(bool); forced {
			err = o.svc.NotifyRunCancelled(ctx, summary)
		} else {
			err = o.svc.NotifyRunCompleted(ctx, summary)
		}
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(o.logger, "notification failed", "notification_failed",
			logging.String("event", string(e.Type)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "notification not delivered"),
		)
	}
}
