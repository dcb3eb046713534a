// Package phrase decomposes free text into overlapping n-word phrases.
package phrase

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordRe matches maximal runs of word characters: letters, digits, underscore.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Set is a de-duplicated collection of phrases belonging to one record.
// Iteration order is first-insertion order, which keeps matching output
// reproducible between runs.
type Set struct {
	order []string
	seen  map[string]struct{}
}

func newSet(capacity int) Set {
	return Set{
		order: make([]string, 0, capacity),
		seen:  make(map[string]struct{}, capacity),
	}
}

func (s *Set) add(p string) {
	if _, ok := s.seen[p]; ok {
		return
	}
	s.seen[p] = struct{}{}
	s.order = append(s.order, p)
}

// Len returns the number of distinct phrases.
func (s Set) Len() int {
	return len(s.order)
}

// Contains reports whether p is in the set.
func (s Set) Contains(p string) bool {
	_, ok := s.seen[p]
	return ok
}

// Phrases returns the phrases in iteration order. The slice must not be modified.
func (s Set) Phrases() []string {
	return s.order
}

// Tokens lowercases text and splits it into word tokens. Everything that is
// not a word character is a separator and is discarded.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	// Casers are stateful; one per call keeps Tokens safe for concurrent use.
	lower := cases.Lower(language.Und).String(text)
	return wordRe.FindAllString(lower, -1)
}

// Extract returns every phrase of minLen..maxLen consecutive tokens in text.
// Phrases are inserted n ascending, then by position, each joined by a single
// space. Empty text, an invalid range, or fewer than minLen tokens yield an
// empty set.
func Extract(text string, minLen, maxLen int) Set {
	if minLen < 1 || maxLen < minLen {
		return newSet(0)
	}
	tokens := Tokens(text)
	if len(tokens) < minLen {
		return newSet(0)
	}

	capacity := 0
	for n := minLen; n <= maxLen && n <= len(tokens); n++ {
		capacity += len(tokens) - n + 1
	}

	set := newSet(capacity)
	for n := minLen; n <= maxLen; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			set.add(strings.Join(tokens[i:i+n], " "))
		}
	}
	return set
}
