package language

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"pt_br", "pt-BR"},
		{"fra", "fr"},
		{"german", "de"},
		{" ja ", "ja"},
		{"", ""},
		{"not a tag!", "not a tag!"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBase(t *testing.T) {
	if got := Base("pt-BR"); got != "pt" {
		t.Errorf("Base(pt-BR) = %q, want pt", got)
	}
	if got := Base(""); got != "und" {
		t.Errorf("Base(\"\") = %q, want und", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "English"},
		{"fr", "French"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNonLatinScript(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"en", false},
		{"fr", false},
		{"ru", true},
		{"ja", true},
		{"ar", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NonLatinScript(tt.input); got != tt.want {
				t.Errorf("NonLatinScript(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
