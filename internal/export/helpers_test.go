package export

import (
	"time"

	"bookvoice/internal/alignment"
	"bookvoice/internal/media"
	"bookvoice/internal/media/audio"
	"bookvoice/internal/timeline"
)

const testRate = 1000

func makeResult(index int, source, translation string) *media.MediaResult {
	task := media.TranslationTask{
		Index:          index,
		SentenceNumber: index + 1,
		SourceText:     source,
		TargetLanguage: "de",
		TranslatedText: translation,
	}
	result := media.NewResult(task)
	original := audio.Silence(400*time.Millisecond, testRate)
	pause := audio.Silence(100*time.Millisecond, testRate)
	translated := audio.Silence(500*time.Millisecond, testRate)
	result.Parts = []media.SpokenPart{
		{Kind: alignment.KindOriginal, Text: source, Clip: original},
		{Kind: alignment.KindSilence, Clip: pause},
		{Kind: alignment.KindTranslation, Text: translation, Clip: translated},
	}
	combined, err := audio.Concat(original, pause, translated)
	if err != nil {
		panic(err)
	}
	result.Audio = combined
	result.Voices.Set(media.RoleOriginal, "en", "amy")
	result.Voices.Set(media.RoleTranslation, "de", "thorsten")
	meta := alignment.BuildSentenceMetadata(result.PartInputs(), alignment.Options{Estimate: true})
	result.AudioMetadata = &meta
	return result
}

func testBatch(size int, formats ...string) *Batch {
	return NewBatch(BatchOptions{
		Size:           size,
		Timeline:       timeline.Options{SyncRatio: 0.9, Granularity: timeline.GranularityWord},
		TargetLanguage: "de",
		Flags:          Flags{Formats: formats, SplitAudio: true},
	})
}
