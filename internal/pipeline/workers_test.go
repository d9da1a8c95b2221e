package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookvoice/internal/media"
	"bookvoice/internal/progress"
)

func feed(t *testing.T, tasks *Bounded[*media.TranslationTask], n, workers int) {
	t.Helper()
	go func() {
		ctx := context.Background()
		for i := range n {
			_ = tasks.Push(ctx, &media.TranslationTask{Index: i, SentenceNumber: i + 1, TranslatedText: "hallo welt"})
		}
		for range workers {
			_ = tasks.Push(ctx, nil)
		}
	}()
}

func drain(t *testing.T, results *Bounded[*media.MediaResult]) []*media.MediaResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []*media.MediaResult
	for {
		r, err := results.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if r == nil {
			return out
		}
		out = append(out, r)
	}
}

func TestWorkersDegradeFailingSynthesis(t *testing.T) {
	tracker := progress.NewTracker()
	tasks := NewBounded[*media.TranslationTask]("tasks", 2, time.Millisecond, nil)
	failing := media.SynthesizerFunc(func(context.Context, media.TranslationTask) (*media.MediaResult, error) {
		return nil, errors.New("engine offline")
	})
	const n, workers = 12, 3
	feed(t, tasks, n, workers)
	results, pool := StartWorkers(context.Background(), tasks, workers, failing, tracker, WithDegradedSampleRate(testRate))
	got := drain(t, results)
	pool.Wait()

	if len(got) != n {
		t.Fatalf("expected %d results, got %d", n, len(got))
	}
	seen := make(map[int]bool)
	for _, r := range got {
		if !r.Degraded || r.Audio.Duration() != 0 {
			t.Fatalf("expected degraded silent result, got %+v", r)
		}
		if r.Audio.SampleRate != testRate {
			t.Fatalf("unexpected degraded sample rate %d", r.Audio.SampleRate)
		}
		seen[r.Index] = true
	}
	if len(seen) != n {
		t.Fatalf("expected every index once, got %v", seen)
	}
	if pool.Degraded() != n || pool.Handled() != n {
		t.Fatalf("unexpected pool counters degraded=%d handled=%d", pool.Degraded(), pool.Handled())
	}
	if snap := tracker.Snapshot(); snap.Completed != n {
		t.Fatalf("expected %d completions, got %d", n, snap.Completed)
	}
}

func TestWorkersRecoverPanics(t *testing.T) {
	tasks := NewBounded[*media.TranslationTask]("tasks", 1, time.Millisecond, nil)
	panicky := media.SynthesizerFunc(func(_ context.Context, task media.TranslationTask) (*media.MediaResult, error) {
		if task.Index == 1 {
			panic("boom")
		}
		return silentSynth(100*time.Millisecond)(context.Background(), task)
	})
	feed(t, tasks, 3, 1)
	results, pool := StartWorkers(context.Background(), tasks, 0, panicky, nil)
	got := drain(t, results)
	pool.Wait()
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if !got[1].Degraded || got[0].Degraded || got[2].Degraded {
		t.Fatalf("expected only index 1 degraded: %v %v %v", got[0].Degraded, got[1].Degraded, got[2].Degraded)
	}
}

func TestWorkersStopOnCancellation(t *testing.T) {
	tasks := NewBounded[*media.TranslationTask]("tasks", 1, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	_, pool := StartWorkers(ctx, tasks, 4, silentSynth(time.Millisecond), nil)
	cancel()
	select {
	case <-pool.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop after cancellation")
	}
}
