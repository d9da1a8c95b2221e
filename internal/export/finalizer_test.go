package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookvoice/internal/logging"
	"bookvoice/internal/progress"
)

type scriptedExporter struct {
	mu      sync.Mutex
	fail    map[string]bool
	seen    []string
	release chan struct{}
}

func (s *scriptedExporter) Export(ctx context.Context, req Request) (Result, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	s.seen = append(s.seen, req.ChunkID)
	s.mu.Unlock()
	if s.fail[req.ChunkID] {
		return Result{}, errors.New("disk full")
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	return Result{ChunkID: req.ChunkID, RangeLabel: req.RangeLabel()}, nil
}

func TestFinalizerContinuesAfterFailure(t *testing.T) {
	exp := &scriptedExporter{fail: map[string]bool{"b": true}}
	tracker := progress.NewTracker()
	var errorEvents int
	tracker.Subscribe(progress.ObserverFunc(func(e progress.Event) {
		if e.Type == progress.EventError {
			errorEvents++
		}
	}))
	var committed []string
	f := NewFinalizer(exp, tracker, logging.NewNop(), WithCommitHook(func(_ context.Context, r Result) {
		committed = append(committed, r.ChunkID)
	}))

	for _, id := range []string{"a", "b", "c"} {
		if err := f.Submit(context.Background(), Request{ChunkID: id, StartSentence: 1, EndSentence: 1}); err != nil {
			t.Fatalf("Submit %s: %v", id, err)
		}
	}
	f.Close()

	if f.Failures() != 1 || errorEvents != 1 {
		t.Fatalf("failures=%d errorEvents=%d, want 1/1", f.Failures(), errorEvents)
	}
	results := f.Results()
	if len(results) != 2 || results[0].ChunkID != "a" || results[1].ChunkID != "c" {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(committed) != 2 {
		t.Fatalf("commit hook calls = %d", len(committed))
	}
	if err := f.Submit(context.Background(), Request{ChunkID: "d"}); !errors.Is(err, ErrFinalizerClosed) {
		t.Fatalf("expected ErrFinalizerClosed, got %v", err)
	}
	f.Close()
}

func TestFinalizerSingleSlotBackpressure(t *testing.T) {
	exp := &scriptedExporter{release: make(chan struct{})}
	f := NewFinalizer(exp, nil, nil)

	// First job is taken by the export goroutine and blocks; second fills
	// the slot; third must wait.
	if err := f.Submit(context.Background(), Request{ChunkID: "1"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(f.jobs) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := f.Submit(context.Background(), Request{ChunkID: "2"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := f.Submit(ctx, Request{ChunkID: "3"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected third submit to block until deadline, got %v", err)
	}

	close(exp.release)
	f.Close()
	if len(f.Results()) != 2 {
		t.Fatalf("expected two exports, got %d", len(f.Results()))
	}
}

func TestFinalizerExportSurvivesSubmitCancellation(t *testing.T) {
	exp := &scriptedExporter{}
	f := NewFinalizer(exp, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := f.Submit(ctx, Request{ChunkID: "final"}); err != nil {
		t.Fatal(err)
	}
	cancel()
	f.Close()
	if len(f.Results()) != 1 {
		t.Fatalf("flushed batch should export after cancellation, failures=%d", f.Failures())
	}
}
