package model

import (
	"encoding/json"
	"fmt"
)

// Marker is the category applied to a record after matching.
type Marker int

const (
	NoMatch    Marker = iota // record was not matched
	SelfMatch                // matched a record of its own dataset
	CrossMatch               // matched a record of the other dataset
)

// String returns the marker name used in logs and JSON output.
func (m Marker) String() string {
	switch m {
	case NoMatch:
		return "no_match"
	case SelfMatch:
		return "self_match"
	case CrossMatch:
		return "cross_match"
	default:
		return fmt.Sprintf("marker(%d)", int(m))
	}
}

// MarshalJSON encodes the marker by name.
func (m Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Escalate returns the stronger of two markers. Markers never downgrade:
// CrossMatch outranks SelfMatch, which outranks NoMatch.
func (m Marker) Escalate(next Marker) Marker {
	if next > m {
		return next
	}
	return m
}

// CompareMode selects which dataset pairs the matcher enumerates.
type CompareMode string

const (
	// CompareCrossOnly compares dataset A against dataset B only.
	CompareCrossOnly CompareMode = "cross_only"
	// CompareCrossAndSelf additionally compares each dataset against itself.
	CompareCrossAndSelf CompareMode = "cross_and_self"
)

// Valid reports whether the mode is a known value.
func (c CompareMode) Valid() bool {
	return c == CompareCrossOnly || c == CompareCrossAndSelf
}

// Evidence records one matching record pair and the first phrase pair found
// to satisfy the threshold. The phrases are first-found, not best-scoring.
type Evidence struct {
	RefA    RecordRef `json:"ref_a" yaml:"ref_a"`
	RefB    RecordRef `json:"ref_b" yaml:"ref_b"`
	TextA   string    `json:"text_a" yaml:"text_a"`
	TextB   string    `json:"text_b" yaml:"text_b"`
	PhraseA string    `json:"phrase_a" yaml:"phrase_a"`
	PhraseB string    `json:"phrase_b" yaml:"phrase_b"`
	Cross   bool      `json:"cross" yaml:"cross"`
}
