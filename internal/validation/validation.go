package validation

import (
	"os"
	"strconv"
	"strings"
)

// PreviewLength bounds the denormalized last-message preview stored on the
// conversation row.
const PreviewLength = 200

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// TrimAndLimit trims whitespace and truncates to max runes; cutting on a rune
// boundary keeps truncated text valid UTF-8.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

func NormalizeGroupName(name string) string {
	return TrimAndLimit(name, 100)
}

// Preview truncates text to max runes, marking truncation with an ellipsis.
func Preview(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

// ValidEmoji bounds reaction payloads; the client sends a single emoji but
// grapheme clusters can span several runes.
func ValidEmoji(emoji string) bool {
	return emoji != "" && len(emoji) <= 16
}
