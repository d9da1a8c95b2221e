package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	"bookvoice/internal/catalog"
	"bookvoice/internal/export"
	"bookvoice/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.BeginRun(ctx, catalog.Run{ID: "run-1", SourcePath: "/books/a.txt", TargetLanguage: "de", Total: 6, StartedAt: started}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	results := []export.Result{
		{ChunkID: "c1", RangeLabel: "1-4", StartSentence: 1, EndSentence: 4, Artifacts: []string{"/out/1-4_book.srt", "/out/1-4_book.wav"}, CommittedAt: started.Add(time.Minute)},
		{ChunkID: "c2", RangeLabel: "5-6", StartSentence: 5, EndSentence: 6, Artifacts: []string{"/out/5-6_book.srt"}, CommittedAt: started.Add(2 * time.Minute)},
	}
	for _, r := range results {
		if err := store.Record(ctx, "run-1", r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.List(ctx, "run-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RangeLabel != "1-4" || !slices.Equal(entries[0].Artifacts, results[0].Artifacts) {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if !entries[1].CommittedAt.Equal(results[1].CommittedAt) {
		t.Fatalf("committed time not preserved: %v", entries[1].CommittedAt)
	}

	if err := store.Record(ctx, "run-1", results[0]); err == nil {
		t.Fatal("expected duplicate chunk to be rejected")
	}
}

func TestRunsReportsStatusAndCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"older", "newer"} {
		if err := store.BeginRun(ctx, catalog.Run{ID: id, SourcePath: "/books/a.txt", StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}
	if err := store.Record(ctx, "newer", export.Result{ChunkID: "x", RangeLabel: "1-1", StartSentence: 1, EndSentence: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.FinishRun(ctx, catalog.Run{ID: "newer", Total: 3, Sequenced: 2, Status: catalog.RunCancelled}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "newer" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
	if runs[0].Status != catalog.RunCancelled || runs[0].Sequenced != 2 || runs[0].Exports != 1 || runs[0].FinishedAt.IsZero() {
		t.Fatalf("unexpected finished run %+v", runs[0])
	}
	if runs[1].Status != catalog.RunRunning || !runs[1].FinishedAt.IsZero() {
		t.Fatalf("unexpected running run %+v", runs[1])
	}

	all, err := store.List(ctx, "")
	if err != nil || len(all) != 1 {
		t.Fatalf("List all = %d entries, err %v", len(all), err)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	err := store.FinishRun(context.Background(), catalog.Run{ID: "missing", Status: catalog.RunCompleted})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.OpenConfig(cfg)
	if err != nil {
		t.Fatalf("OpenConfig: %v", err)
	}
	if err := store.BeginRun(context.Background(), catalog.Run{ID: "r", SourcePath: "a"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened := testsupport.MustOpenCatalog(t, cfg)
	runs, err := reopened.Runs(context.Background())
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected persisted run, got %d (%v)", len(runs), err)
	}
}
