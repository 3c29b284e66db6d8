package textclean

import (
	"github.com/pmezard/go-difflib/difflib"

	"ocrsearch/internal/dictionary"
)

// ClosestWord returns the dictionary word most similar to token whose
// Ratcliff/Obershelp ratio is at least cutoff. Ties go to the
// lexicographically greatest word.
//
// Only word lengths that can reach the cutoff are scanned: the ratio of two
// sequences of lengths la and lb never exceeds 2*min(la,lb)/(la+lb).
func ClosestWord(token string, dict *dictionary.Dictionary, cutoff float64) (string, bool) {
	b := runeStrings(token)
	lb := len(b)
	if lb == 0 || dict.Len() == 0 {
		return "", false
	}

	m := difflib.NewMatcher(nil, b)

	var (
		best      string
		bestScore float64
		found     bool
	)
	for la := 1; la <= dict.MaxLength(); la++ {
		if lengthBound(la, lb) < cutoff {
			continue
		}
		for _, candidate := range dict.WordsOfLength(la) {
			m.SetSeq1(runeStrings(candidate))
			if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
				continue
			}
			score := m.Ratio()
			if score < cutoff {
				continue
			}
			if !found || score > bestScore || (score == bestScore && candidate > best) {
				best, bestScore, found = candidate, score, true
			}
		}
	}
	return best, found
}

// Similarity returns the Ratcliff/Obershelp ratio between a and b, computed
// over runes.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runeStrings(a), runeStrings(b)).Ratio()
}

func lengthBound(la, lb int) float64 {
	shorter := la
	if lb < shorter {
		shorter = lb
	}
	return 2 * float64(shorter) / float64(la+lb)
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
