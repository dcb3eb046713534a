// Package report turns matcher evidence into marking instructions and a
// display-ready summary table.
package report

import (
	"github.com/sells-group/phrase-matcher/internal/model"
)

// NoMatchesWarning is shown to users when a run finds nothing.
const NoMatchesWarning = "No matches found with the current threshold."

// Row is one line of the summary table.
type Row struct {
	TextA   string `json:"text_a" yaml:"text_a"`
	TextB   string `json:"text_b" yaml:"text_b"`
	PhraseA string `json:"phrase_a" yaml:"phrase_a"`
	PhraseB string `json:"phrase_b" yaml:"phrase_b"`
	IsCross bool   `json:"is_cross" yaml:"is_cross"`
}

// Report is the outcome of one run as handed to the output sink.
type Report struct {
	// Marks maps every matched record to its marker. Records absent from the
	// map are NoMatch.
	Marks map[model.RecordRef]model.Marker
	// Rows preserves evidence discovery order.
	Rows []Row
	// NoMatches is true when the run produced no evidence, including runs
	// where the matcher was never invoked.
	NoMatches bool
}

// Empty returns the report for a run that had nothing to compare.
func Empty() *Report {
	return &Report{
		Marks:     map[model.RecordRef]model.Marker{},
		Rows:      []Row{},
		NoMatches: true,
	}
}

// Build derives marks and summary rows from evidence. Cross evidence marks
// both records CrossMatch; self evidence marks them SelfMatch unless they are
// already CrossMatch.
func Build(evidence []model.Evidence) *Report {
	if len(evidence) == 0 {
		return Empty()
	}

	rep := &Report{
		Marks: make(map[model.RecordRef]model.Marker, 2*len(evidence)),
		Rows:  make([]Row, 0, len(evidence)),
	}
	for _, ev := range evidence {
		marker := model.SelfMatch
		if ev.Cross {
			marker = model.CrossMatch
		}
		rep.mark(ev.RefA, marker)
		rep.mark(ev.RefB, marker)

		rep.Rows = append(rep.Rows, Row{
			TextA:   ev.TextA,
			TextB:   ev.TextB,
			PhraseA: ev.PhraseA,
			PhraseB: ev.PhraseB,
			IsCross: ev.Cross,
		})
	}
	return rep
}

func (r *Report) mark(ref model.RecordRef, m model.Marker) {
	r.Marks[ref] = r.Marks[ref].Escalate(m)
}

// Marker returns the marker for ref, NoMatch when it was never matched.
func (r *Report) Marker(ref model.RecordRef) model.Marker {
	return r.Marks[ref]
}

// Count returns the number of records carrying marker m.
func (r *Report) Count(m model.Marker) int {
	n := 0
	for _, got := range r.Marks {
		if got == m {
			n++
		}
	}
	return n
}
