// Package dictionary loads the reference word list used to validate and
// correct OCR tokens.
//
// The list is a UTF-8 file with one word per line. Words are trimmed and
// lowercased on load; words not longer than the configured minimum length are
// discarded. A loaded Dictionary is immutable and safe for concurrent use.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrDictionaryNotFound is returned together with an empty dictionary when the
// word list file does not exist.
var ErrDictionaryNotFound = errors.New("dictionary file not found")

// Dictionary is a set of lowercase words bucketed by rune length.
type Dictionary struct {
	words    map[string]struct{}
	byLength map[int][]string
	maxLen   int
}

// New builds a dictionary from words. Words are trimmed and lowercased and
// kept only when their rune length is greater than minLength.
func New(words []string, minLength int) *Dictionary {
	d := &Dictionary{
		words:    make(map[string]struct{}, len(words)),
		byLength: make(map[int][]string),
	}
	for _, w := range words {
		d.add(w, minLength)
	}
	d.seal()
	return d
}

// Load reads the word list at path. A missing file yields an empty
// dictionary and ErrDictionaryNotFound so the caller can log it and carry on;
// cleaning against an empty dictionary drops every token.
func Load(path string, minLength int) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(nil, minLength), fmt.Errorf("%w: %s", ErrDictionaryNotFound, path)
		}
		return New(nil, minLength), fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d, err := Read(f, minLength)
	if err != nil {
		return New(nil, minLength), fmt.Errorf("read dictionary %s: %w", path, err)
	}
	return d, nil
}

// Read builds a dictionary from r, one word per line.
func Read(r io.Reader, minLength int) (*Dictionary, error) {
	d := &Dictionary{
		words:    make(map[string]struct{}),
		byLength: make(map[int][]string),
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		d.add(sc.Text(), minLength)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	d.seal()
	return d, nil
}

func (d *Dictionary) add(raw string, minLength int) {
	w := strings.ToLower(strings.TrimSpace(raw))
	n := utf8.RuneCountInString(w)
	if n <= minLength {
		return
	}
	if _, ok := d.words[w]; ok {
		return
	}
	d.words[w] = struct{}{}
	d.byLength[n] = append(d.byLength[n], w)
	if n > d.maxLen {
		d.maxLen = n
	}
}

func (d *Dictionary) seal() {
	for _, bucket := range d.byLength {
		sort.Strings(bucket)
	}
}

// Len returns the number of words.
func (d *Dictionary) Len() int { return len(d.words) }

// MaxLength returns the rune length of the longest word.
func (d *Dictionary) MaxLength() int { return d.maxLen }

// Contains reports whether word is in the dictionary. Lookups are exact; the
// caller lowercases.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[word]
	return ok
}

// HasPrefixWord reports whether some dictionary word is a prefix of s.
func (d *Dictionary) HasPrefixWord(s string) bool {
	n := 0
	for i := range s {
		if i == 0 {
			continue
		}
		n++
		if n > d.maxLen {
			return false
		}
		if d.Contains(s[:i]) {
			return true
		}
	}
	return s != "" && utf8.RuneCountInString(s) <= d.maxLen && d.Contains(s)
}

// WordsOfLength returns the sorted words with exactly n runes. The returned
// slice must not be modified.
func (d *Dictionary) WordsOfLength(n int) []string {
	return d.byLength[n]
}
