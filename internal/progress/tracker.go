package progress

import (
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"bookvoice/internal/logging"
	"bookvoice/internal/services"
)

// EventType identifies what changed.
type EventType string

const (
	EventStart    EventType = "start"
	EventTotal    EventType = "total"
	EventProgress EventType = "progress"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Metadata keys used by tracker events.
const (
	MetaIndex    = "index"
	MetaSentence = "sentence"
	MetaError    = "error"
	MetaKind     = "error_kind"
	MetaReason   = "reason"
	MetaForced   = "forced"
)

// Event is an immutable progress notification.
type Event struct {
	Type     EventType
	Time     time.Time
	Snapshot Snapshot
	Metadata map[string]any
}

// Observer receives tracker events.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger used to report observer panics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker owns the progress counters of one run.
type Tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	errors    int
	start     time.Time
	finished  bool

	observers map[int]Observer
	nextID    int

	now    func() time.Time
	logger *slog.Logger
}

// NewTracker constructs an idle tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		observers: make(map[int]Observer),
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers an observer and returns a function that removes it.
func (t *Tracker) Subscribe(o Observer) func() {
	if o == nil {
		return func() {}
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.observers[id] = o
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.observers, id)
			t.mu.Unlock()
		})
	}
}

// Start marks the beginning of the run. Calling it again restarts the clock.
func (t *Tracker) Start() {
	t.update(EventStart, nil, func() bool {
		t.start = t.now()
		t.finished = false
		return true
	})
}

// SetTotal records the number of sentences the run will process.
func (t *Tracker) SetTotal(n int) {
	t.update(EventTotal, nil, func() bool {
		t.total = max(n, 0)
		return true
	})
}

// RecordCompletion counts one finished sentence.
func (t *Tracker) RecordCompletion(index, sentenceNumber int) {
	meta := map[string]any{MetaIndex: index, MetaSentence: sentenceNumber}
	t.update(EventProgress, meta, func() bool {
		t.completed++
		return true
	})
}

// RecordError counts a contained failure. context is copied into the event
// metadata together with the error text and its classification.
func (t *Tracker) RecordError(err error, context map[string]any) {
	meta := make(map[string]any, len(context)+2)
	maps.Copy(meta, context)
	if err != nil {
		meta[MetaError] = err.Error()
		meta[MetaKind] = services.Classify(err)
	}
	t.update(EventError, meta, func() bool {
		t.errors++
		return true
	})
}

// MarkFinished ends the run. forced reports that the run stopped before all
// work completed. Only the first call emits an event.
func (t *Tracker) MarkFinished(reason string, forced bool) {
	meta := map[string]any{MetaReason: reason, MetaForced: forced}
	t.update(EventComplete, meta, func() bool {
		if t.finished {
			return false
		}
		t.finished = true
		return true
	})
}

// Snapshot computes the current progress view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return buildSnapshot(t.completed, t.total, t.errors, t.start, t.now(), t.finished)
}

func (t *Tracker) update(kind EventType, meta map[string]any, mutate func() bool) {
	t.mu.Lock()
	if !mutate() {
		t.mu.Unlock()
		return
	}
	event := Event{
		Type:     kind,
		Time:     t.now(),
		Snapshot: t.snapshotLocked(),
		Metadata: meta,
	}
	observers := t.observerListLocked()
	t.mu.Unlock()

	for _, o := range observers {
		t.notify(o, event)
	}
}

func (t *Tracker) observerListLocked() []Observer {
	if len(t.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(t.observers))
	for id := range t.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = t.observers[id]
	}
	return out
}

func (t *Tracker) notify(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(t.logger, "progress observer panicked", "progress_observer_panic",
				logging.String("event", string(e.Type)),
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "observer missed an event"),
			)
		}
	}()
	o.Observe(e)
}
