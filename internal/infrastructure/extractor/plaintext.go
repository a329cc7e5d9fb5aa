package extractor

import (
	"strings"
	"unicode/utf8"
)

func extractPlaintext(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	// Legacy exports are often Latin-1; every byte maps to a rune.
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String(), nil
}
