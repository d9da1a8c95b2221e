package render

import (
	"fmt"
	"os"
	"strings"
	"time"

	"bookvoice/internal/export"
	"bookvoice/internal/timeline"
)

// highlightColour is the ASS override colour (&HBBGGRR&) of revealed words.
const highlightColour = `&H0000FFFF&`

const assHeader = `[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,%d,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,0,5,40,40,40,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// captionLine is one text row of a caption with its revealed word count.
type captionLine struct {
	text     string
	revealed func(timeline.Segment) int
}

func captionRows(c export.CaptionBlock) []captionLine {
	rows := []captionLine{{c.Source, func(s timeline.Segment) int { return s.OriginalIndex }}}
	if c.Translation != "" && c.Translation != c.Source {
		rows = append(rows, captionLine{c.Translation, func(s timeline.Segment) int { return s.TranslationIndex }})
	}
	if c.Transliteration != "" {
		rows = append(rows, captionLine{c.Transliteration, func(s timeline.Segment) int { return s.TransliterationIndex }})
	}
	return rows
}

// highlightASS renders one dialogue cue per highlight segment. Each cue shows
// the whole caption with the words revealed so far coloured. Captions
// without segments get a single plain cue.
func highlightASS(captions []export.CaptionBlock, width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, assHeader, width, height, max(height/18, 12))
	for _, c := range captions {
		if c.Duration <= 0 {
			continue
		}
		rows := captionRows(c)
		if len(c.Segments) == 0 {
			writeDialogue(&b, c.Start, c.End(), rows, nil)
			continue
		}
		offset := c.Start
		for i := range c.Segments {
			seg := c.Segments[i]
			end := offset + seg.Duration
			if i == len(c.Segments)-1 {
				end = c.End()
			}
			writeDialogue(&b, offset, end, rows, &seg)
			offset = end
		}
	}
	return b.String()
}

func writeDialogue(b *strings.Builder, start, end time.Duration, rows []captionLine, seg *timeline.Segment) {
	startText, endText := assTimestamp(start), assTimestamp(end)
	if startText == endText {
		return
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		revealed := 0
		if seg != nil {
			revealed = row.revealed(*seg)
		}
		lines = append(lines, highlightWords(row.text, revealed))
	}
	fmt.Fprintf(b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", startText, endText, strings.Join(lines, `\N`))
}

func highlightWords(text string, revealed int) string {
	words := strings.Fields(assEscape(text))
	revealed = min(max(revealed, 0), len(words))
	if revealed == 0 {
		return strings.Join(words, " ")
	}
	out := `{\c` + highlightColour + `}` + strings.Join(words[:revealed], " ") + `{\r}`
	if rest := words[revealed:]; len(rest) > 0 {
		out += " " + strings.Join(rest, " ")
	}
	return out
}

var assEscaper = strings.NewReplacer(`\`, `/`, `{`, `(`, `}`, `)`)

func assEscape(text string) string {
	return assEscaper.Replace(text)
}

// assTimestamp formats H:MM:SS.cc.
func assTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := (d + 5*time.Millisecond) / (10 * time.Millisecond)
	h := cs / 360_000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

func writeHighlightASS(path string, job export.RenderJob, width, height int) error {
	if err := os.WriteFile(path, []byte(highlightASS(job.Captions, width, height)), 0o644); err != nil {
		return fmt.Errorf("write highlight subtitles: %w", err)
	}
	return nil
}
