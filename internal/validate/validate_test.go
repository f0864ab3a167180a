package validate

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "movie.mp4", ""},
		{"empty", "", ""},
		{"at limit", string(make([]byte, MaxTitleLength)), ""},
		{"over limit", string(make([]byte, MaxTitleLength+1)), "title must be 500 characters or fewer"},
	}
	for _, tt := range tests {
		if got := Title(tt.input); got != tt.want {
			t.Errorf("Title(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "http://host/path/movie.mp4", ""},
		{"at limit", strings.Repeat("a", MaxURLLength), ""},
		{"over limit", strings.Repeat("a", MaxURLLength+1), "URL must be 2048 characters or fewer"},
	}
	for _, tt := range tests {
		if got := URL(tt.input); got != tt.want {
			t.Errorf("URL(%q [len=%d]) = %q, want %q", tt.name, len(tt.input), got, tt.want)
		}
	}
}

func TestTruncateTitle_ShortUnchanged(t *testing.T) {
	if got := TruncateTitle("movie.mp4"); got != "movie.mp4" {
		t.Errorf("expected unchanged title, got %q", got)
	}
}

func TestTruncateTitle_KeepsRunesWhole(t *testing.T) {
	// "é" is two bytes, so the 500-byte boundary falls mid-rune.
	input := "a" + strings.Repeat("é", MaxTitleLength)
	got := TruncateTitle(input)

	if len(got) > MaxTitleLength {
		t.Errorf("expected at most %d bytes, got %d", MaxTitleLength, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("expected truncated title to remain valid UTF-8")
	}
}
