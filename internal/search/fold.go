package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips its diacritics, so "LOCAÇÃO" folds to
// "locacao".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// matcher reports whether an OCR word belongs to the search term. Every
// field of a multi-word term is matched on its own.
type matcher struct {
	parts []string
}

func newMatcher(term string) matcher {
	return matcher{parts: strings.Fields(Fold(term))}
}

func (m matcher) Match(word string) bool {
	w := Fold(word)
	if w == "" {
		return false
	}
	for _, p := range m.parts {
		if strings.Contains(w, p) {
			return true
		}
	}
	return false
}
