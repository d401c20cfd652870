package rendering

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// maxLineRunes bounds a single drawn value so it stays inside the page.
const maxLineRunes = 80

// flattenLine prepares a value for a single fixed-position line: control
// characters become spaces, runs of whitespace collapse, and values longer
// than maxLineRunes are cut with an ellipsis.
func flattenLine(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text))

	space := false
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r == ' ' || r == '\n' || r == '\r' || r == '\t' || r == '\v' || r == '\f':
			if !space {
				result.WriteRune(' ')
			}
			space = true
		case r < 0x20 || r == 0x7f:
			// drop other control characters
		default:
			result.WriteRune(r)
			space = false
		}
	}

	runes := []rune(result.String())
	if len(runes) > maxLineRunes {
		return string(runes[:maxLineRunes-3]) + "..."
	}
	return string(runes)
}

// orNA substitutes N/A for empty values.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// toCP1252 encodes text for the PDF core fonts. Runes the code page cannot
// represent become '?'.
func toCP1252(text string) string {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
