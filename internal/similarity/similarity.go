// Package similarity scores how alike two phrases are at the character level.
//
// The score is the classic sequence-matcher ratio 2*M/T, where T is the total
// length of both strings and M is the number of characters in the matching
// blocks found by repeatedly taking the longest common block and recursing
// into the gaps on either side. It is order-sensitive: anagrams do not score 1.0.
package similarity

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Score returns the similarity ratio of a and b in [0, 1].
//
// The underlying ratio can differ when its arguments are swapped, because
// ties in the longest-block search resolve toward the first operand. Score
// always evaluates the lexicographically smaller string first so that
// Score(a, b) == Score(b, a).
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if b < a {
		a, b = b, a
	}
	m := difflib.NewMatcher(runeSeq(a), runeSeq(b))
	return m.Ratio()
}

// Similar reports whether Score(a, b) meets threshold.
func Similar(a, b string, threshold float64) bool {
	return Score(a, b) >= threshold
}

// ThresholdFromPercent converts a percentage (e.g. 85) to a ratio (0.85).
func ThresholdFromPercent(percent int) float64 {
	return float64(percent) / 100
}

// runeSeq splits s into one element per character.
func runeSeq(s string) []string {
	seq := make([]string, 0, len(s))
	for _, r := range s {
		seq = append(seq, string(r))
	}
	return seq
}
