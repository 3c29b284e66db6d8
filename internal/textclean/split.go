package textclean

import (
	"strings"
	"unicode/utf8"

	"ocrsearch/internal/dictionary"
)

// SplitCompound segments a token that is really several dictionary words run
// together. The scan is greedy, left to right, without backtracking: the
// running prefix is committed as soon as it is a dictionary word and the rest
// of the input is empty or starts with a dictionary word. A nil result means
// no segment was found and the token should go through the other correction
// paths.
//
// With {"casa", "porta"}, "casaportaextra" yields ["casa"]: "porta" is never
// committed because "extra" does not start with a dictionary word.
func SplitCompound(token string, dict *dictionary.Dictionary) []string {
	word := strings.ToLower(token)

	var segments []string
	start := 0
	for i, r := range word {
		end := i + utf8.RuneLen(r)
		current := word[start:end]
		remaining := word[end:]

		if dict.Contains(current) && (remaining == "" || dict.HasPrefixWord(remaining)) {
			segments = append(segments, current)
			start = end
		}
	}

	if tail := word[start:]; tail != "" && dict.Contains(tail) {
		segments = append(segments, tail)
	}

	return segments
}
