// Package matcher finds fuzzy phrase matches between every pair of records of
// two datasets.
//
// Every record of dataset A is compared with every record of dataset B, and
// for each record pair every phrase of one is compared with every phrase of
// the other until the first pair meets the threshold. The worst case (no
// match anywhere) costs O(|A| * |B| * PA * PB) character-level comparisons,
// where PA and PB are the average phrase counts per record. No indexing is
// applied; callers bound the input size.
//
// Evidence is first-found, not best-scoring. Phrase sets iterate in a fixed
// order and records are visited in source order, so repeated runs over the
// same input report the same phrase pairs in the same order.
package matcher

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/phrase-matcher/internal/model"
	"github.com/sells-group/phrase-matcher/internal/phrase"
	"github.com/sells-group/phrase-matcher/internal/similarity"
)

// Stats counts the work done by a run.
type Stats struct {
	Pairs       int64 `json:"pairs" yaml:"pairs"`
	Comparisons int64 `json:"comparisons" yaml:"comparisons"`
	Matches     int64 `json:"matches" yaml:"matches"`
}

func (s *Stats) add(o Stats) {
	s.Pairs += o.Pairs
	s.Comparisons += o.Comparisons
	s.Matches += o.Matches
}

// Result holds the evidence of one run in discovery order.
type Result struct {
	Evidence []model.Evidence `json:"evidence"`
	Stats    Stats            `json:"stats"`
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) {
		m.log = l
	}
}

// Matcher compares record collections with fixed Params.
type Matcher struct {
	params Params
	log    *zap.Logger
}

// New validates p and returns a Matcher.
func New(p Params, opts ...Option) (*Matcher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{params: p}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = zap.L()
	}
	return m, nil
}

// Params returns the matcher configuration.
func (m *Matcher) Params() Params {
	return m.params
}

// entry is a record with its phrase set computed once per run.
type entry struct {
	rec     model.Record
	phrases phrase.Set
}

// rowResult is the outcome of comparing one outer record against a collection.
type rowResult struct {
	evidence []model.Evidence
	stats    Stats
}

// Match compares a against b and, in CompareCrossAndSelf mode, each dataset
// against itself. Evidence is ordered: cross pass, then a against a, then b
// against b. The only error is cancellation of ctx.
func (m *Matcher) Match(ctx context.Context, a, b model.Dataset) (*Result, error) {
	left := m.prepare(a)
	right := m.prepare(b)

	res := &Result{}
	if err := m.pass(ctx, res, left, right, true); err != nil {
		return nil, err
	}

	if m.params.Mode == model.CompareCrossAndSelf {
		if err := m.pass(ctx, res, left, left, false); err != nil {
			return nil, err
		}
		if err := m.pass(ctx, res, right, right, false); err != nil {
			return nil, err
		}
	}

	m.log.Debug("matcher: run complete",
		zap.String("dataset_a", a.Name),
		zap.String("dataset_b", b.Name),
		zap.Int64("pairs", res.Stats.Pairs),
		zap.Int64("comparisons", res.Stats.Comparisons),
		zap.Int64("matches", res.Stats.Matches),
	)
	return res, nil
}

// prepare drops records without text and extracts phrases for the rest.
func (m *Matcher) prepare(d model.Dataset) []entry {
	entries := make([]entry, 0, len(d.Records))
	for _, rec := range d.Records {
		if rec.Empty() {
			continue
		}
		entries = append(entries, entry{
			rec:     rec,
			phrases: phrase.Extract(rec.Text, m.params.MinLen, m.params.MaxLen),
		})
	}
	return entries
}

// pass runs the outer loop over left and appends to res in source order.
func (m *Matcher) pass(ctx context.Context, res *Result, left, right []entry, cross bool) error {
	rows := make([]rowResult, len(left))

	if m.params.Workers <= 1 {
		for i := range left {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "matcher: context cancelled")
			}
			rows[i] = m.scanRow(left[i], right, cross)
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(m.params.Workers)
		for i := range left {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return eris.Wrap(err, "matcher: context cancelled")
				}
				rows[i] = m.scanRow(left[i], right, cross)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, row := range rows {
		res.Evidence = append(res.Evidence, row.evidence...)
		res.Stats.add(row.stats)
	}
	return nil
}

// scanRow compares one outer record against every record of right.
func (m *Matcher) scanRow(outer entry, right []entry, cross bool) rowResult {
	var row rowResult
	for _, inner := range right {
		if !cross && inner.rec.Ref == outer.rec.Ref {
			continue
		}
		row.stats.Pairs++

		p1, p2, n, ok := findFirst(outer.phrases, inner.phrases, m.params.Threshold)
		row.stats.Comparisons += n
		if !ok {
			continue
		}
		row.stats.Matches++
		row.evidence = append(row.evidence, model.Evidence{
			RefA:    outer.rec.Ref,
			RefB:    inner.rec.Ref,
			TextA:   outer.rec.Text,
			TextB:   inner.rec.Text,
			PhraseA: p1,
			PhraseB: p2,
			Cross:   cross,
		})
	}
	return row
}

// findFirst returns the first phrase pair, in set iteration order, whose
// score meets threshold, and the number of comparisons made.
func findFirst(a, b phrase.Set, threshold float64) (string, string, int64, bool) {
	var n int64
	for _, p1 := range a.Phrases() {
		for _, p2 := range b.Phrases() {
			n++
			if similarity.Similar(p1, p2, threshold) {
				return p1, p2, n, true
			}
		}
	}
	return "", "", n, false
}
