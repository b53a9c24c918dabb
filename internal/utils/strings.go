package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeString trims surrounding whitespace.
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

var civilDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeCivilDate returns a trimmed YYYY-MM-DD string, or "" when the
// value is empty or not a civil date.
func NormalizeCivilDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if !civilDateRe.MatchString(trimmed) {
		return ""
	}
	return trimmed
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeGuestName folds a name for comparison: accents stripped,
// lowercased, inner whitespace collapsed. "João  Silva" and "joao silva"
// compare equal, which is what a guest typing their own name expects.
func NormalizeGuestName(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}
