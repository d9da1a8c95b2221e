package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes name usable as the base of an artifact file name.
// Path separators, colons and asterisks turn into dashes and the remaining
// reserved characters are dropped.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// CollapseWhitespace trims value and folds every whitespace run into a
// single space.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
