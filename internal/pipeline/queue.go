package pipeline

import (
	"context"
	"log/slog"
	"time"

	"bookvoice/internal/logging"
)

const defaultPollInterval = 250 * time.Millisecond

// Bounded is a fixed-capacity FIFO between two stages. Push and Pop block
// in bounded waits and re-check cancellation on every timeout.
type Bounded[T any] struct {
	name   string
	items  chan T
	poll   time.Duration
	logger *slog.Logger
}

// NewBounded returns a queue holding at most capacity items. capacity below
// 1 becomes 1; poll at or below zero uses 250ms. logger may be nil.
func NewBounded[T any](name string, capacity int, poll time.Duration, logger *slog.Logger) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Bounded[T]{name: name, items: make(chan T, capacity), poll: poll, logger: logger}
}

// Push appends v, waiting while the queue is full.
func (q *Bounded[T]) Push(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(q.poll)
	defer timer.Stop()
	started := time.Now()
	for {
		select {
		case q.items <- v:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			q.stalled("push", started)
			timer.Reset(q.poll)
		}
	}
}

// Pop removes the oldest item, waiting while the queue is empty.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	timer := time.NewTimer(q.poll)
	defer timer.Stop()
	started := time.Now()
	for {
		select {
		case v := <-q.items:
			return v, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
			q.stalled("pop", started)
			timer.Reset(q.poll)
		}
	}
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int { return cap(q.items) }

func (q *Bounded[T]) stalled(op string, since time.Time) {
	if q.logger == nil {
		return
	}
	q.logger.Debug("queue wait",
		logging.String("queue", q.name),
		logging.String("op", op),
		logging.Int("depth", len(q.items)),
		logging.Duration("waited", time.Since(since)),
	)
}
