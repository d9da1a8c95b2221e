package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"greek":      "el",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"hebrew":     "he",
	"persian":    "fa",
}

func parse(code string) (language.Tag, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.Und, false
	}
	if mapped, ok := wordForms[strings.ToLower(code)]; ok {
		code = mapped
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// Canonical returns the canonical BCP 47 spelling of code. Unrecognized
// input is returned lowercased and trimmed.
func Canonical(code string) string {
	tag, ok := parse(code)
	if !ok {
		return strings.ToLower(strings.TrimSpace(code))
	}
	return tag.String()
}

// Base returns the ISO 639-1 (or shortest ISO 639) base language of code,
// or "und" when it cannot be determined.
func Base(code string) string {
	tag, ok := parse(code)
	if !ok {
		return "und"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "und"
	}
	return base.String()
}

// DisplayName returns the English name for code. Returns "Unknown" for empty
// input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	tag, ok := parse(code)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NonLatinScript reports whether the most likely script for code is not
// Latin, which is when a transliteration line is useful.
func NonLatinScript(code string) bool {
	tag, ok := parse(code)
	if !ok {
		return false
	}
	script, conf := tag.Script()
	if conf == language.No {
		return false
	}
	return script.String() != "Latn"
}
