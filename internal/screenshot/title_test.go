package screenshot

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "shot", "shot"},
		{"trim", "  shot  ", "shot"},
		{"spaces to underscore", "my  nice\tshot", "my_nice_shot"},
		{"illegal chars stripped", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"only illegal", `<>:"/\|?*`, ""},
		{"empty", "", ""},
		{"unicode kept", "café shot", "café_shot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.input); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_Cap(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("é", 150))
	if n := utf8.RuneCountInString(got); n != MaxTitleRunes {
		t.Errorf("rune count = %d, want %d", n, MaxTitleRunes)
	}
}

func TestDisplayName(t *testing.T) {
	s := &Screenshot{ID: 12}
	if got := s.DisplayName(); got != "Screenshot #12" {
		t.Errorf("DisplayName() = %q, want %q", got, "Screenshot #12")
	}

	title := "Login page"
	s.Title = &title
	if got := s.DisplayName(); got != "Login page" {
		t.Errorf("DisplayName() = %q, want %q", got, "Login page")
	}
}

func TestFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	if got := FileName(ts); got != "1700000000123.png" {
		t.Errorf("FileName() = %q", got)
	}
}
