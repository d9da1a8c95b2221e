package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"bookvoice/internal/logging"
	"bookvoice/internal/media"
	"bookvoice/internal/progress"
	"bookvoice/internal/services/translate"
)

// Producer translates sentences in document order and feeds the task queue.
type Producer struct {
	translator     translate.Translator
	tracker        *progress.Tracker
	logger         *slog.Logger
	sourceLanguage string
	targetLanguage string
}

// NewProducer constructs a producer. tracker and logger may be nil.
func NewProducer(translator translate.Translator, tracker *progress.Tracker, logger *slog.Logger, sourceLanguage, targetLanguage string) *Producer {
	if translator == nil {
		translator = translate.Passthrough{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Producer{
		translator:     translator,
		tracker:        tracker,
		logger:         logging.NewComponentLogger(logger, "producer"),
		sourceLanguage: sourceLanguage,
		targetLanguage: targetLanguage,
	}
}

// Run pushes one task per sentence with Index 0..n-1 and SentenceNumber
// startNumber..startNumber+n-1, then one nil sentinel per worker. It returns
// the context error when cancelled.
func (p *Producer) Run(ctx context.Context, sentences []string, startNumber int, queue *Bounded[*media.TranslationTask], workers int) error {
	if p.tracker != nil {
		p.tracker.SetTotal(len(sentences))
	}
	for i, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		task := p.translate(ctx, i, startNumber+i, sentence)
		if err := queue.Push(ctx, task); err != nil {
			return err
		}
	}
	for range max(workers, 1) {
		if err := queue.Push(ctx, nil); err != nil {
			return err
		}
	}
	p.logger.Debug("producer finished", logging.Int("sentences", len(sentences)))
	return nil
}

func (p *Producer) translate(ctx context.Context, index, number int, sentence string) *media.TranslationTask {
	task := &media.TranslationTask{
		Index:          index,
		SentenceNumber: number,
		SourceText:     strings.TrimSpace(sentence),
		SourceLanguage: p.sourceLanguage,
		TargetLanguage: p.targetLanguage,
	}
	out, err := p.translator.Translate(ctx, task.SourceText, p.sourceLanguage, p.targetLanguage)
	if err != nil {
		if ctx.Err() == nil {
			logging.WarnWithContext(p.logger, "translation failed; using failure marker", "translation_failed",
				logging.Int(logging.FieldSentence, number),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check translation backend credentials and connectivity"),
				logging.String(logging.FieldImpact, "sentence exported without translation"),
			)
			if p.tracker != nil {
				p.tracker.RecordError(err, map[string]any{
					progress.MetaIndex:    index,
					progress.MetaSentence: number,
					"stage":               "translate",
				})
			}
		}
		task.TranslatedText = translate.FailureMarker
		task.TranslationFailed = true
		return task
	}
	task.TranslatedText = out.Text
	task.Transliteration = out.Transliteration
	return task
}
