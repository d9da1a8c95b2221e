package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"bookvoice/internal/config"
	"bookvoice/internal/logging"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/services"
)

type fakeRenderer struct {
	err  error
	jobs []RenderJob
}

func (f *fakeRenderer) RenderAndEncode(_ context.Context, job RenderJob) (string, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return "", f.err
	}
	for _, input := range []string{job.AudioPath, job.SubtitlePath} {
		if _, err := os.Stat(input); err != nil {
			return "", err
		}
	}
	return job.OutputPath, os.WriteFile(job.OutputPath, []byte("mp4"), 0o644)
}

func newTestExporter(t *testing.T, renderer Renderer) (*Exporter, string, string) {
	t.Helper()
	root := t.TempDir()
	out := filepath.Join(root, "out")
	stage := filepath.Join(root, "staging")
	exp := NewExporter(Options{OutputDir: out, StagingDir: stage, BaseName: "book", SampleRate: testRate}, renderer, logging.NewNop())
	return exp, out, stage
}

func fullRequest(t *testing.T, formats ...string) Request {
	t.Helper()
	b := testBatch(2, formats...)
	b.Accumulate(makeResult(0, "Hello world", "Hallo Welt"))
	b.Accumulate(makeResult(1, "Good night", "Gute Nacht"))
	req, err := b.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return req
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestExportWritesAllFormats(t *testing.T) {
	exp, out, stage := newTestExporter(t, nil)
	req := fullRequest(t, config.FormatText, config.FormatSRT, config.FormatVTT, config.FormatHighlights, config.FormatAudio)

	result, err := exp.Export(context.Background(), req)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{
		".bookvoice.lock",
		"1-2_book.highlights.json",
		"1-2_book.original.wav",
		"1-2_book.srt",
		"1-2_book.translation.wav",
		"1-2_book.txt",
		"1-2_book.vtt",
		"1-2_book.wav",
	}
	if got := listNames(t, out); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("output = %v, want %v", got, want)
	}
	if len(result.Artifacts) != len(want)-1 || result.RangeLabel != "1-2" {
		t.Fatalf("unexpected result %+v", result)
	}
	if left := listNames(t, stage); len(left) != 0 {
		t.Fatalf("staging not cleaned: %v", left)
	}

	srt, err := os.ReadFile(filepath.Join(out, "1-2_book.srt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,000 --> 00:00:01,000\nHello world\nHallo Welt\n\n2\n00:00:01,000 --> 00:00:02,000\n") {
		t.Fatalf("unexpected srt:\n%s", srt)
	}
	clip, err := audio.ReadWAVFile(filepath.Join(out, "1-2_book.wav"))
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if clip.Duration().Seconds() != 2 {
		t.Fatalf("wav duration = %v", clip.Duration())
	}
}

func TestExportRendererFailureLeavesNothing(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("ffmpeg crashed")}
	exp, out, stage := newTestExporter(t, renderer)
	req := fullRequest(t, config.FormatText)
	req.Flags.Video = true

	_, err := exp.Export(context.Background(), req)
	if err == nil {
		t.Fatal("expected export error")
	}
	if services.Classify(err) != "external_tool" {
		t.Fatalf("unexpected classification %q for %v", services.Classify(err), err)
	}
	if got := listNames(t, out); len(got) != 0 {
		t.Fatalf("output should be untouched, got %v", got)
	}
	if left := listNames(t, stage); len(left) != 0 {
		t.Fatalf("staging not cleaned: %v", left)
	}
}

func TestExportVideoCommitsOnlyRequested(t *testing.T) {
	renderer := &fakeRenderer{}
	exp, out, _ := newTestExporter(t, renderer)
	req := fullRequest(t, config.FormatText)
	req.Flags.SplitAudio = false
	req.Flags.Video = true

	if _, err := exp.Export(context.Background(), req); err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{".bookvoice.lock", "1-2_book.mp4", "1-2_book.txt"}
	if got := listNames(t, out); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("output = %v, want %v", got, want)
	}
	if len(renderer.jobs) != 1 || len(renderer.jobs[0].Captions) != 2 {
		t.Fatalf("unexpected render jobs %+v", renderer.jobs)
	}
}

func TestExportCommitFailureRollsBack(t *testing.T) {
	exp, out, _ := newTestExporter(t, nil)
	req := fullRequest(t, config.FormatText, config.FormatSRT, config.FormatHighlights)
	req.Flags.SplitAudio = false

	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	// A previous export of the same range.
	if err := os.WriteFile(filepath.Join(out, "1-2_book.highlights.json"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Blocks publishing the text file.
	if err := os.Mkdir(filepath.Join(out, "1-2_book.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := exp.Export(context.Background(), req)
	if err == nil {
		t.Fatal("expected commit failure")
	}
	old, readErr := os.ReadFile(filepath.Join(out, "1-2_book.highlights.json"))
	if readErr != nil || string(old) != "old" {
		t.Fatalf("previous artifact not restored: %q %v", old, readErr)
	}
	if _, statErr := os.Stat(filepath.Join(out, "1-2_book.srt")); !os.IsNotExist(statErr) {
		t.Fatal("partially committed srt should be removed")
	}
	for _, name := range listNames(t, out) {
		if strings.HasPrefix(name, ".incoming-") {
			t.Fatalf("incoming directory left behind: %s", name)
		}
	}
}

func TestExportRejectsEmptyRequest(t *testing.T) {
	exp, _, _ := newTestExporter(t, nil)
	if _, err := exp.Export(context.Background(), Request{ChunkID: "x"}); services.Classify(err) != "validation" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(time.Hour+62*time.Second+5*time.Millisecond, ','); got != "01:01:02,005" {
		t.Fatalf("formatTimestamp = %q", got)
	}
	if got := formatTimestamp(-1, '.'); got != "00:00:00.000" {
		t.Fatalf("negative timestamp = %q", got)
	}
}
