// Package pipeline runs one match over a workbook: pick the two datasets,
// match them, build the report, and mark the workbook.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/phrase-matcher/internal/matcher"
	"github.com/sells-group/phrase-matcher/internal/metrics"
	"github.com/sells-group/phrase-matcher/internal/report"
	"github.com/sells-group/phrase-matcher/internal/workbook"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string
	SheetA   string
	SheetB   string
	Report   *report.Report
	Stats    matcher.Stats
	Duration time.Duration
	// Skipped is true when the workbook had fewer than two sheets and the
	// matcher was not invoked.
	Skipped bool
	// Workbook is the input workbook with marks applied.
	Workbook *workbook.Workbook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithMetrics records every run on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline runs matches with fixed params. A Pipeline holds no per-run state
// and may be shared between goroutines.
type Pipeline struct {
	matcher *matcher.Matcher
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New validates params and returns a Pipeline.
func New(params matcher.Params, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = zap.L()
	}

	m, err := matcher.New(params, matcher.WithLogger(p.log))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: new matcher")
	}
	p.matcher = m
	return p, nil
}

// Params returns the match params of the pipeline.
func (p *Pipeline) Params() matcher.Params {
	return p.matcher.Params()
}

// Run matches the first two sheets of wb and applies the resulting marks to
// wb. A workbook with fewer than two sheets yields an empty report with
// NoMatches set and is not an error.
func (p *Pipeline) Run(ctx context.Context, wb *workbook.Workbook) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.New().String(),
		Workbook: wb,
	}
	log := p.log.With(zap.String("run_id", res.RunID))

	a, b, ok := wb.Pair()
	if !ok {
		res.Skipped = true
		res.Report = report.Empty()
		res.Duration = time.Since(start)
		log.Warn("pipeline: workbook needs at least two sheets, skipping match",
			zap.Strings("sheets", wb.SheetNames()),
		)
		p.observe(metrics.ResultSkipped, res)
		return res, nil
	}
	res.SheetA, res.SheetB = a.Name, b.Name

	params := p.matcher.Params()
	log.Info("pipeline: starting match",
		zap.String("sheet_a", a.Name),
		zap.Int("records_a", a.Len()),
		zap.String("sheet_b", b.Name),
		zap.Int("records_b", b.Len()),
		zap.Int("min_len", params.MinLen),
		zap.Int("max_len", params.MaxLen),
		zap.Float64("threshold", params.Threshold),
		zap.String("compare_mode", string(params.Mode)),
	)

	mr, err := p.matcher.Match(ctx, a, b)
	if err != nil {
		res.Duration = time.Since(start)
		p.observe(metrics.ResultError, res)
		return nil, eris.Wrap(err, "pipeline: match")
	}
	res.Stats = mr.Stats
	res.Report = report.Build(mr.Evidence)
	marked := wb.ApplyMarks(res.Report.Marks)
	res.Duration = time.Since(start)

	result := metrics.ResultMatched
	if res.Report.NoMatches {
		result = metrics.ResultNoMatches
	}
	p.observe(result, res)

	log.Info("pipeline: match complete",
		zap.Int("evidence", len(mr.Evidence)),
		zap.Int("cells_marked", marked),
		zap.Int64("pairs", mr.Stats.Pairs),
		zap.Int64("comparisons", mr.Stats.Comparisons),
		zap.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

func (p *Pipeline) observe(result string, res *Result) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveRun(result, res.Duration, res.Stats.Pairs, res.Stats.Comparisons, res.Stats.Matches)
}
