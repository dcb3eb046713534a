package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/phrase-matcher/internal/model"
	"github.com/sells-group/phrase-matcher/internal/report"
	"github.com/sells-group/phrase-matcher/internal/workbook"
)

func newTestMatchCmd(t *testing.T, args map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "match"}
	bindMatchFlags(c)
	for k, v := range args {
		require.NoError(t, c.Flags().Set(k, v))
	}
	return c
}

func TestResolveMatchOptions_ConfigDefaults(t *testing.T) {
	c := newTestMatchCmd(t, map[string]string{"input": "in.xlsx"})
	cfg := testConfig()
	cfg.Output.File = "out.xlsx"

	opts, err := resolveMatchOptions(c, cfg)
	require.NoError(t, err)
	assert.Equal(t, "in.xlsx", opts.Input)
	assert.Equal(t, "out.xlsx", opts.Output)
	assert.Equal(t, report.FormatTable, opts.Format)
	assert.Equal(t, cfg.Match, opts.Match)
}

func TestResolveMatchOptions_FlagsOverride(t *testing.T) {
	c := newTestMatchCmd(t, map[string]string{
		"input":     "in.xlsx",
		"output":    "",
		"format":    "yaml",
		"min-len":   "3",
		"max-len":   "5",
		"threshold": "92",
		"self":      "true",
		"workers":   "4",
	})
	cfg := testConfig()
	cfg.Output.File = "out.xlsx"

	opts, err := resolveMatchOptions(c, cfg)
	require.NoError(t, err)
	assert.Empty(t, opts.Output)
	assert.Equal(t, report.FormatYAML, opts.Format)
	assert.Equal(t, 3, opts.Match.MinLen)
	assert.Equal(t, 5, opts.Match.MaxLen)
	assert.Equal(t, 92, opts.Match.ThresholdPercent)
	assert.Equal(t, string(model.CompareCrossAndSelf), opts.Match.CompareMode)
	assert.Equal(t, 4, opts.Match.Workers)
}

func TestResolveMatchOptions_Errors(t *testing.T) {
	_, err := resolveMatchOptions(newTestMatchCmd(t, nil), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input is required")

	_, err = resolveMatchOptions(newTestMatchCmd(t, map[string]string{"input": "x", "format": "pdf"}), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestRunMatch_WritesWorkbookAndTable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "highlighted.xlsx")
	opts := matchOptions{
		Input:  createTestXLSX(t, foxSheets()...),
		Output: out,
		Format: report.FormatTable,
		Match:  testConfig().Match,
	}

	var stdout bytes.Buffer
	require.NoError(t, runMatch(context.Background(), opts, &stdout))

	assert.Contains(t, stdout.String(), "Matched Phrase 1")
	assert.Contains(t, stdout.String(), "quick brown")

	wb, err := workbook.OpenBytes(readFile(t, out))
	require.NoError(t, err)
	a, b, ok := wb.Pair()
	require.True(t, ok)
	assert.Equal(t, "The quick brown fox jumps", a.Records[0].Text)
	assert.Equal(t, "A quick brown fox leaps", b.Records[0].Text)

	assert.Equal(t, workbook.CrossMatchColor, wb.FillColor(model.RecordRef{Dataset: "Sheet1", Row: 2}))
	assert.Equal(t, workbook.CrossMatchColor, wb.FillColor(model.RecordRef{Dataset: "Sheet2", Row: 2}))
	assert.Empty(t, wb.FillColor(model.RecordRef{Dataset: "Sheet1", Row: 3}))
}

func TestRunMatch_JSONSummaryFile(t *testing.T) {
	summary := filepath.Join(t.TempDir(), "summary.json")
	opts := matchOptions{
		Input:   createTestXLSX(t, foxSheets()...),
		Summary: summary,
		Format:  report.FormatJSON,
		Match:   testConfig().Match,
	}

	var stdout bytes.Buffer
	require.NoError(t, runMatch(context.Background(), opts, &stdout))
	assert.Empty(t, stdout.String())

	var rows []report.Row
	require.NoError(t, json.Unmarshal(readFile(t, summary), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "quick brown", rows[0].PhraseA)
	assert.Equal(t, "quick brown", rows[0].PhraseB)
	assert.True(t, rows[0].IsCross)
}

func TestRunMatch_SingleSheetWarns(t *testing.T) {
	opts := matchOptions{
		Input:  createTestXLSX(t, testSheet{name: "Only", rows: []string{"Text", "quick brown fox"}}),
		Format: report.FormatTable,
		Match:  testConfig().Match,
	}

	var stdout bytes.Buffer
	require.NoError(t, runMatch(context.Background(), opts, &stdout))
	assert.Equal(t, report.NoMatchesWarning+"\n", stdout.String())
}

func TestRunMatch_InvalidParams(t *testing.T) {
	mc := testConfig().Match
	mc.ThresholdPercent = 20
	opts := matchOptions{Input: "unused.xlsx", Format: report.FormatTable, Match: mc}

	err := runMatch(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold_percent")
}

func TestRunMatch_MissingInput(t *testing.T) {
	opts := matchOptions{
		Input:  filepath.Join(t.TempDir(), "missing.xlsx"),
		Format: report.FormatTable,
		Match:  testConfig().Match,
	}

	err := runMatch(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load workbook")
}

func TestRunMatch_URLInput(t *testing.T) {
	book := readFile(t, createTestXLSX(t, foxSheets()...))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(book) //nolint:errcheck
	}))
	defer srv.Close()

	opts := matchOptions{
		Input:  srv.URL + "/catalogs.xlsx",
		Format: report.FormatCSV,
		Match:  testConfig().Match,
	}

	var stdout bytes.Buffer
	require.NoError(t, runMatch(context.Background(), opts, &stdout))
	assert.Contains(t, stdout.String(), "quick brown")
}
