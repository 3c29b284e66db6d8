package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// wordRun matches a maximal run of word characters (letters, digits and
// underscore). Only runs made entirely of Portuguese letters become tokens.
var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

const portugueseLetters = "abcdefghijklmnopqrstuvwxyzáàâãéêíóôõúüç"

// Tokenize lowercases text and returns its Portuguese word tokens in order.
// A run that mixes letters with digits or foreign letters ("abc1", "naïve")
// yields no token at all; it is not trimmed down to its valid part.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))

	runs := wordRun.FindAllString(text, -1)
	tokens := runs[:0]
	for _, run := range runs {
		if isPortugueseWord(run) {
			tokens = append(tokens, run)
		}
	}
	return tokens
}

func isPortugueseWord(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(portugueseLetters, r) {
			return false
		}
	}
	return s != ""
}
