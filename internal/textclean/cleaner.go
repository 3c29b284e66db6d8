// Package textclean turns raw OCR output into dictionary-validated Portuguese
// text.
//
// Every token goes through the same decision chain: short tokens are dropped,
// long tokens are tried as run-together compounds, dictionary words are kept
// verbatim and anything else is replaced by its closest dictionary word or
// dropped. The surviving tokens are joined with single spaces in their
// original order.
package textclean

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"ocrsearch/internal/dictionary"
)

// Default thresholds.
const (
	DefaultMinWordLength     = 2
	DefaultFuzzyCutoff       = 0.85
	DefaultCompoundMinLength = 12
)

// Options holds the cleaning thresholds.
type Options struct {
	// MinWordLength drops tokens whose rune length is not greater than it.
	MinWordLength int

	// CompoundMinLength makes tokens longer than it candidates for splitting.
	CompoundMinLength int

	// FuzzyCutoff is the minimum similarity ratio for a correction.
	FuzzyCutoff float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		MinWordLength:     DefaultMinWordLength,
		CompoundMinLength: DefaultCompoundMinLength,
		FuzzyCutoff:       DefaultFuzzyCutoff,
	}
}

// Outcome is what ValidateToken did with a token.
type Outcome int

const (
	Dropped Outcome = iota
	Kept
	Split
	Corrected
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Split:
		return "split"
	case Corrected:
		return "corrected"
	default:
		return "dropped"
	}
}

// Stats counts token outcomes since the cleaner was created.
type Stats struct {
	Kept      int64 `json:"kept"`
	Split     int64 `json:"split"`
	Corrected int64 `json:"corrected"`
	Dropped   int64 `json:"dropped"`
}

// Total returns the number of tokens seen.
func (s Stats) Total() int64 {
	return s.Kept + s.Split + s.Corrected + s.Dropped
}

// Cleaner validates and corrects tokens against a dictionary. It is safe for
// concurrent use.
type Cleaner struct {
	dict *dictionary.Dictionary
	opts Options

	kept, split, corrected, dropped atomic.Int64
}

// New returns a cleaner over dict.
func New(dict *dictionary.Dictionary, opts Options) *Cleaner {
	if dict == nil {
		dict = dictionary.New(nil, opts.MinWordLength)
	}
	return &Cleaner{dict: dict, opts: opts}
}

// ValidateToken returns the words a single token contributes to the cleaned
// text, which is empty when the token is dropped.
func (c *Cleaner) ValidateToken(token string) []string {
	words, _ := c.validate(token)
	return words
}

// Classify is ValidateToken that also reports which path the token took.
func (c *Cleaner) Classify(token string) ([]string, Outcome) {
	return c.validate(token)
}

func (c *Cleaner) validate(token string) ([]string, Outcome) {
	token = strings.ToLower(token)
	n := utf8.RuneCountInString(token)

	if n <= c.opts.MinWordLength {
		return nil, Dropped
	}

	if n > c.opts.CompoundMinLength {
		if parts := SplitCompound(token, c.dict); len(parts) > 0 {
			return parts, Split
		}
	}

	if c.dict.Contains(token) {
		return []string{token}, Kept
	}

	if match, ok := ClosestWord(token, c.dict, c.opts.FuzzyCutoff); ok {
		return []string{match}, Corrected
	}

	return nil, Dropped
}

// Clean tokenizes text and returns the accepted words joined by single spaces.
func (c *Cleaner) Clean(text string) string {
	out, _ := c.CleanWithStats(text)
	return out
}

// CleanWithStats is Clean that also returns the outcome counts for this text
// alone. The cleaner's running totals are updated as well.
func (c *Cleaner) CleanWithStats(text string) (string, Stats) {
	var (
		words []string
		local Stats
	)
	for _, tok := range Tokenize(text) {
		accepted, outcome := c.validate(tok)
		switch outcome {
		case Kept:
			local.Kept++
		case Split:
			local.Split++
		case Corrected:
			local.Corrected++
		default:
			local.Dropped++
		}
		words = append(words, accepted...)
	}

	c.kept.Add(local.Kept)
	c.split.Add(local.Split)
	c.corrected.Add(local.Corrected)
	c.dropped.Add(local.Dropped)

	return strings.Join(words, " "), local
}

// Stats returns the running totals.
func (c *Cleaner) Stats() Stats {
	return Stats{
		Kept:      c.kept.Load(),
		Split:     c.split.Load(),
		Corrected: c.corrected.Load(),
		Dropped:   c.dropped.Load(),
	}
}
