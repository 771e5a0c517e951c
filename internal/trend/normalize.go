package trend

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// dedupPrefixRunes is the prefix length used by the fallback dedup rule.
const dedupPrefixRunes = 10

// NormalizeKeyword strips punctuation, applies NFC and collapses whitespace.
// Hangul, letters, digits and underscores survive.
func NormalizeKeyword(keyword string) string {
	keyword = norm.NFC.String(keyword)

	var b strings.Builder
	for _, r := range keyword {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// foldKey is the case-insensitive comparison form of a keyword.
func foldKey(keyword string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(keyword)))
}

// prefixKey is the fallback dedup key: the first ten folded runes.
func prefixKey(keyword string) string {
	r := []rune(foldKey(keyword))
	if len(r) > dedupPrefixRunes {
		r = r[:dedupPrefixRunes]
	}
	return string(r)
}
