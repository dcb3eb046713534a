package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/phrase-matcher/internal/config"
	"github.com/sells-group/phrase-matcher/internal/fetcher"
	"github.com/sells-group/phrase-matcher/internal/model"
	"github.com/sells-group/phrase-matcher/internal/pipeline"
	"github.com/sells-group/phrase-matcher/internal/report"
	"github.com/sells-group/phrase-matcher/internal/workbook"
)

var (
	matchInput     string
	matchOutput    string
	matchSummary   string
	matchFormat    string
	matchMinLen    int
	matchMaxLen    int
	matchThreshold int
	matchSelf      bool
	matchWorkers   int
)

// matchOptions is the resolved input of one match command run.
type matchOptions struct {
	Input   string
	Output  string // highlighted workbook path, empty to skip
	Summary string // summary file path, empty for stdout
	Format  report.Format
	Match   config.MatchConfig
	Fetch   config.FetchConfig
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match the first two sheets of a workbook and highlight similar rows",
	Long: `Reads the first column of the first two sheets (header row skipped), finds
rows whose word phrases match within the threshold, writes a highlighted copy of
the workbook and prints the match summary.

Every row of sheet 1 is compared with every row of sheet 2, so run time grows
with the product of the two row counts.

Examples:
  # Defaults from config: phrases of 3-4 words, 85% threshold
  phrase-matcher match --input catalogs.xlsx

  # Shorter phrases, stricter threshold, JSON summary to a file
  phrase-matcher match --input catalogs.xlsx --min-len 2 --max-len 3 --threshold 90 \
    --format json --summary matches.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := resolveMatchOptions(cmd, cfg)
		if err != nil {
			return err
		}
		return runMatch(cmd.Context(), opts, os.Stdout)
	},
}

// resolveMatchOptions merges config values with flags that were set explicitly.
func resolveMatchOptions(cmd *cobra.Command, c *config.Config) (matchOptions, error) {
	opts := matchOptions{
		Input:   matchInput,
		Output:  c.Output.File,
		Summary: matchSummary,
		Match:   c.Match,
		Fetch:   c.Fetch,
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		opts.Output = matchOutput
	}
	if flags.Changed("min-len") {
		opts.Match.MinLen = matchMinLen
	}
	if flags.Changed("max-len") {
		opts.Match.MaxLen = matchMaxLen
	}
	if flags.Changed("threshold") {
		opts.Match.ThresholdPercent = matchThreshold
	}
	if flags.Changed("self") && matchSelf {
		opts.Match.CompareMode = string(model.CompareCrossAndSelf)
	}
	if flags.Changed("workers") {
		opts.Match.Workers = matchWorkers
	}

	format := c.Output.Format
	if flags.Changed("format") {
		format = matchFormat
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return matchOptions{}, eris.Wrap(err, "match: format")
	}
	opts.Format = f

	if opts.Input == "" {
		return matchOptions{}, eris.New("match: --input is required")
	}
	return opts, nil
}

// runMatch executes one run and writes the workbook and summary.
func runMatch(ctx context.Context, opts matchOptions, stdout io.Writer) error {
	params, err := opts.Match.Params()
	if err != nil {
		return eris.Wrap(err, "match: params")
	}

	p, err := pipeline.New(params)
	if err != nil {
		return err
	}

	b, err := newFetcher(opts.Fetch).Fetch(ctx, opts.Input)
	if err != nil {
		return eris.Wrap(err, "match: load workbook")
	}
	wb, err := workbook.OpenBytes(b)
	if err != nil {
		return eris.Wrap(err, "match: load workbook")
	}

	res, err := p.Run(ctx, wb)
	if err != nil {
		return eris.Wrap(err, "match: run")
	}

	if opts.Output != "" {
		if err := res.Workbook.Save(opts.Output); err != nil {
			return eris.Wrap(err, "match: save workbook")
		}
		zap.L().Info("match: wrote highlighted workbook",
			zap.String("run_id", res.RunID),
			zap.String("path", opts.Output),
			zap.Int("cross_matches", res.Report.Count(model.CrossMatch)),
			zap.Int("self_matches", res.Report.Count(model.SelfMatch)),
		)
	}

	if res.Report.NoMatches {
		zap.L().Warn(report.NoMatchesWarning, zap.String("run_id", res.RunID))
	}

	return writeSummary(res.Report, opts, stdout)
}

func newFetcher(c config.FetchConfig) *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		UserAgent:  c.UserAgent,
		Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries: c.MaxRetries,
		MaxBytes:   int64(c.MaxMB) << 20,
	})
}

func writeSummary(rep *report.Report, opts matchOptions, stdout io.Writer) error {
	w := stdout
	if opts.Summary != "" {
		f, err := os.Create(opts.Summary)
		if err != nil {
			return eris.Wrap(err, "match: create summary file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	return report.Write(w, rep, opts.Format)
}

func bindMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&matchInput, "input", "", "xlsx workbook path or http(s) URL with at least two sheets (required)")
	cmd.Flags().StringVar(&matchOutput, "output", "", "highlighted workbook path (default from config, empty to skip)")
	cmd.Flags().StringVar(&matchSummary, "summary", "", "write the summary to this file instead of stdout")
	cmd.Flags().StringVar(&matchFormat, "format", "", "summary format: table, json, yaml, csv (default from config)")
	cmd.Flags().IntVar(&matchMinLen, "min-len", 0, "minimum phrase length in words (2-4)")
	cmd.Flags().IntVar(&matchMaxLen, "max-len", 0, "maximum phrase length in words (min-len to 6)")
	cmd.Flags().IntVar(&matchThreshold, "threshold", 0, "fuzzy match threshold in percent (50-100)")
	cmd.Flags().BoolVar(&matchSelf, "self", false, "also match rows within each sheet")
	cmd.Flags().IntVar(&matchWorkers, "workers", 0, "parallel workers over sheet 1 rows (output order is unchanged)")
}

func init() {
	bindMatchFlags(matchCmd)
	rootCmd.AddCommand(matchCmd)
}
