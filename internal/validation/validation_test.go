package validation

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short text untouched", "see you in Lisbon", 200, "see you in Lisbon"},
		{"whitespace trimmed", "  hello  ", 200, "hello"},
		{"truncated with ellipsis", strings.Repeat("a", 250), 200, strings.Repeat("a", 200) + "…"},
		{"exact length untouched", strings.Repeat("a", 200), 200, strings.Repeat("a", 200)},
		{"multibyte counted as runes", strings.Repeat("é", 10), 5, strings.Repeat("é", 5) + "…"},
		{"empty", "", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.text, tt.max); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestTrimAndLimit(t *testing.T) {
	if got := TrimAndLimit("  hi  ", 10); got != "hi" {
		t.Errorf("expected trimmed string, got %q", got)
	}
	if got := TrimAndLimit("abcdef", 3); got != "abc" {
		t.Errorf("expected limited string, got %q", got)
	}
	if got := TrimAndLimit("abc", 0); got != "abc" {
		t.Errorf("zero limit should not truncate, got %q", got)
	}
}

func TestTrimAndLimitKeepsValidUTF8(t *testing.T) {
	// The limit lands inside a multi-byte rune; truncation must not split it.
	text := strings.Repeat("é", 4)
	got := TrimAndLimit(text, 5)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 4) {
		t.Errorf("expected all four runes kept under a 5-rune cap, got %q", got)
	}

	got = TrimAndLimit(strings.Repeat("é", 10), 5)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 5) {
		t.Errorf("expected five runes, got %q", got)
	}
}

func TestNormalizeGroupName(t *testing.T) {
	if got := NormalizeGroupName("  Lisbon crew  "); got != "Lisbon crew" {
		t.Errorf("expected trimmed name, got %q", got)
	}
	long := strings.Repeat("x", 150)
	if got := NormalizeGroupName(long); len(got) != 100 {
		t.Errorf("expected name capped at 100 bytes, got %d", len(got))
	}
}

func TestValidEmoji(t *testing.T) {
	if !ValidEmoji("👍") {
		t.Error("single emoji should be valid")
	}
	if !ValidEmoji("❤️") {
		t.Error("emoji with variation selector should be valid")
	}
	if ValidEmoji("") {
		t.Error("empty reaction should be invalid")
	}
	if ValidEmoji(strings.Repeat("👍", 10)) {
		t.Error("oversized reaction should be invalid")
	}
}

func TestMaxMessageLength(t *testing.T) {
	t.Setenv("MAX_MESSAGE_LENGTH", "")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("expected default 4000, got %d", got)
	}
	t.Setenv("MAX_MESSAGE_LENGTH", "500")
	if got := MaxMessageLength(); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
	t.Setenv("MAX_MESSAGE_LENGTH", "nope")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("expected fallback 4000 on junk, got %d", got)
	}
}
