package chunking

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText collapses runs of whitespace to single spaces and trims the
// edges, so chunk offsets are stable regardless of source formatting.
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
