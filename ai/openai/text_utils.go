package openai

import (
	"strings"
	"unicode/utf8"
)

// scrubString collapses internal whitespace and trims the text.
func scrubString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// normalizeConfidence maps a model's self-reported confidence onto [0,1].
// Models asked for 0-1 sometimes answer on a 0-10 or 0-100 scale.
func normalizeConfidence(c float64) float32 {
	switch {
	case c <= 0:
		return 0
	case c <= 1:
		return float32(c)
	case c <= 10:
		return float32(c / 10)
	case c <= 100:
		return float32(c / 100)
	default:
		return 1
	}
}
