package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  My Book  ", "My Book"},
		{"a/b\\c:d*e", "a-b-c-d-e"},
		{`what?"<>|`, "what"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  one \t two\n\nthree "); got != "one two three" {
		t.Fatalf("CollapseWhitespace = %q", got)
	}
}
