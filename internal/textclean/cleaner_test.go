package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrsearch/internal/dictionary"
)

func newTestCleaner(words ...string) *Cleaner {
	return New(dictionary.New(words, DefaultMinWordLength), DefaultOptions())
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Casa PORTA", []string{"casa", "porta"}},
		{"keeps accents", "Ação, AÇÃO! Pão", []string{"ação", "ação", "pão"}},
		{"rejects mixed runs whole", "abc1 naïve de_x casa", []string{"casa"}},
		{"punctuation separates", "casa-porta/sol", []string{"casa", "porta", "sol"}},
		{"decomposed input is composed", "ac\u0327a\u0303o", []string{"ação"}},
		{"empty", "  \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTokenDropsShortTokens(t *testing.T) {
	c := newTestCleaner("de", "um", "sol")

	for _, tok := range []string{"", "a", "de", "um"} {
		words, outcome := c.Classify(tok)
		assert.Empty(t, words, tok)
		assert.Equal(t, Dropped, outcome, tok)
	}
}

func TestValidateTokenKeepsDictionaryWords(t *testing.T) {
	c := newTestCleaner("casa", "porta", "ação", "sol")

	for _, tok := range []string{"casa", "porta", "ação", "sol"} {
		words, outcome := c.Classify(tok)
		assert.Equal(t, []string{tok}, words)
		assert.Equal(t, Kept, outcome)
	}
}

func TestValidateTokenCorrectsCloseMatches(t *testing.T) {
	c := newTestCleaner("documento", "contrato")

	words, outcome := c.Classify("documnto")
	assert.Equal(t, []string{"documento"}, words)
	assert.Equal(t, Corrected, outcome)

	words, outcome = c.Classify("xyzwq")
	assert.Empty(t, words)
	assert.Equal(t, Dropped, outcome)
}

func TestCompoundLengthGate(t *testing.T) {
	c := newTestCleaner("casa", "porta")

	// 9 runes: never split, and too far from either word to be corrected.
	words, outcome := c.Classify("casaporta")
	assert.Empty(t, words)
	assert.Equal(t, Dropped, outcome)

	// 14 runes: split greedily, stopping where the rest has no known prefix.
	words, outcome = c.Classify("casaportaextra")
	assert.Equal(t, []string{"casa"}, words)
	assert.Equal(t, Split, outcome)
}

func TestCompoundGateIsConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.CompoundMinLength = 8
	c := New(dictionary.New([]string{"casa", "porta"}, 2), opts)

	assert.Equal(t, []string{"casa", "porta"}, c.ValidateToken("casaporta"))
}

func TestSplitCompound(t *testing.T) {
	dict := dictionary.New([]string{"casa", "porta", "documento"}, 2)

	assert.Equal(t, []string{"casa", "porta", "documento"}, SplitCompound("casaportadocumento", dict))
	assert.Equal(t, []string{"casa"}, SplitCompound("casaportaextra", dict))
	assert.Empty(t, SplitCompound("extracasaporta", dict))
	assert.Empty(t, SplitCompound("", dict))
}

func TestSplitSegmentsAreStable(t *testing.T) {
	c := newTestCleaner("casa", "porta", "documento", "contrato")

	segments := c.ValidateToken("contratocasaporta")
	require.Equal(t, []string{"contrato", "casa", "porta"}, segments)

	for _, seg := range segments {
		assert.Equal(t, []string{seg}, c.ValidateToken(seg))
	}
}

func TestClosestWordTieBreak(t *testing.T) {
	dict := dictionary.New([]string{"contrata", "contrato"}, 2)

	got, ok := ClosestWord("contratx", dict, DefaultFuzzyCutoff)
	require.True(t, ok)
	assert.Equal(t, "contrato", got)
}

func TestClosestWordEmptyDictionary(t *testing.T) {
	_, ok := ClosestWord("casa", dictionary.New(nil, 2), DefaultFuzzyCutoff)
	assert.False(t, ok)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("ação", "ação"), 1e-9)
	assert.InDelta(t, 16.0/17.0, Similarity("documento", "documnto"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestCleanWithStats(t *testing.T) {
	c := newTestCleaner("casa", "porta", "documento", "contrato")

	out, stats := c.CleanWithStats("A casa do DOCUMNTO tem porta xyzwq.")

	assert.Equal(t, "casa documento porta", out)
	assert.Equal(t, Stats{Kept: 2, Corrected: 1, Dropped: 4}, stats)
	assert.Equal(t, int64(7), stats.Total())
	assert.Equal(t, stats, c.Stats())

	c.Clean("casa")
	assert.Equal(t, int64(3), c.Stats().Kept)
}

func TestCleanWithEmptyDictionaryDropsEverything(t *testing.T) {
	c := New(nil, DefaultOptions())

	assert.Equal(t, "", c.Clean("casa porta documento"))
}
