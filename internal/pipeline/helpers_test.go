package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/export"
	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/timeline"
)

const testRate = 1000

// silentSynth returns a one-part result of d per task.
func silentSynth(d time.Duration) media.SynthesizerFunc {
	return func(_ context.Context, task media.TranslationTask) (*media.MediaResult, error) {
		result := media.NewResult(task)
		clip := audio.Silence(d, testRate)
		result.Parts = []media.SpokenPart{{Kind: alignment.KindTranslation, Text: task.TranslatedText, Clip: clip}}
		result.Audio = clip
		return result, nil
	}
}

type recordingExporter struct {
	mu   sync.Mutex
	reqs []export.Request
	fail func(export.Request) error
}

func (e *recordingExporter) Export(_ context.Context, req export.Request) (export.Result, error) {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()
	if e.fail != nil {
		if err := e.fail(req); err != nil {
			return export.Result{}, err
		}
	}
	return export.Result{
		ChunkID:       req.ChunkID,
		RangeLabel:    req.RangeLabel(),
		StartSentence: req.StartSentence,
		EndSentence:   req.EndSentence,
	}, nil
}

func (e *recordingExporter) ranges() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.reqs))
	for _, req := range e.reqs {
		out = append(out, req.RangeLabel())
	}
	return out
}

func sentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Sentence number %d.", i+1)
	}
	return out
}

func testConfig(workers, batch int) Config {
	return Config{
		Workers:         workers,
		QueueSize:       2,
		PollInterval:    5 * time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		SampleRate:      testRate,
		Alignment:       alignment.Options{Estimate: true},
		Batch: export.BatchOptions{
			Size:     batch,
			Timeline: timeline.Options{SyncRatio: 1, Granularity: timeline.GranularityWord},
		},
	}
}
