package alignment

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Grapheme is one user-perceived character of a normalized text.
type Grapheme struct {
	Text string
	// Index is the grapheme position within the whole text, whitespace
	// included. Character ranges in highlight steps use these positions.
	Index int
	// Word is the 0-based word number, or -1 for whitespace.
	Word int
}

// Normalize returns the NFC form used for all grapheme positions.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Segment splits text into grapheme clusters after NFC normalization and
// assigns each non-whitespace cluster to a whitespace-delimited word.
func Segment(text string) []Grapheme {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	var (
		out    []Grapheme
		word   = -1
		inWord bool
		index  int
	)
	gr := uniseg.NewGraphemes(normalized)
	for gr.Next() {
		cluster := gr.Str()
		if isSpace(cluster) {
			out = append(out, Grapheme{Text: cluster, Index: index, Word: -1})
			inWord = false
		} else {
			if !inWord {
				word++
				inWord = true
			}
			out = append(out, Grapheme{Text: cluster, Index: index, Word: word})
		}
		index++
	}
	return out
}

// CountGraphemes returns the number of grapheme clusters in the normalized text.
func CountGraphemes(text string) int {
	return uniseg.GraphemeClusterCount(Normalize(text))
}

func isSpace(cluster string) bool {
	return strings.IndexFunc(cluster, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
