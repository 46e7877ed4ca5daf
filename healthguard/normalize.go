package healthguard

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization, trims and collapses whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// normalizeKey folds a label for case-insensitive lookups.
func normalizeKey(s string) string {
	return strings.ToLower(NormalizeText(s))
}

// normalizeQuery lower-cases the text and replaces punctuation with spaces so that
// similarity scoring only sees letters, digits and single spaces.
func normalizeQuery(s string) string {
	s = normalizeKey(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
