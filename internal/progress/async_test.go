package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
)

func TestAsyncDeliversBufferedEventsOnClose(t *testing.T) {
	var seen atomic.Int64
	async := Async(ObserverFunc(func(Event) { seen.Add(1) }), 16)
	for i := 0; i < 10; i++ {
		async.Observe(Event{Type: EventProgress})
	}
	async.Close()
	if seen.Load()+async.Dropped() != 10 {
		t.Fatalf("delivered %d + dropped %d != 10", seen.Load(), async.Dropped())
	}
	async.Observe(Event{Type: EventProgress})
	async.Close()
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	async := Async(ObserverFunc(func(Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}), 1)

	async.Observe(Event{})
	<-started
	async.Observe(Event{})
	async.Observe(Event{})
	async.Observe(Event{})
	if async.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", async.Dropped())
	}
	close(release)
	async.Close()
}

func TestLogObserverSamplesProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tracker := NewTracker()
	tracker.Subscribe(LogObserver(logger, 50))
	tracker.Start()
	tracker.SetTotal(100)
	for i := 0; i < 100; i++ {
		tracker.RecordCompletion(i, i+1)
	}
	tracker.MarkFinished("complete", false)

	out := buf.String()
	if n := strings.Count(out, "pipeline progress"); n != 3 {
		t.Fatalf("expected 3 sampled progress lines (0%%, 50%%, 100%%), got %d\n%s", n, out)
	}
	if !strings.Contains(out, "pipeline finished") {
		t.Fatal("missing completion line")
	}
}
