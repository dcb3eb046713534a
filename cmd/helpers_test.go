package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/phrase-matcher/internal/config"
)

type testSheet struct {
	name string
	rows []string // first-column values, header first
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, text := range s.rows {
			sheet.AddRow().AddCell().SetString(text)
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func foxSheets() []testSheet {
	return []testSheet{
		{name: "Sheet1", rows: []string{"Text", "The quick brown fox jumps", "Completely different entry"}},
		{name: "Sheet2", rows: []string{"Text", "A quick brown fox leaps"}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Match: config.MatchConfig{
			MinLen:           2,
			MaxLen:           3,
			ThresholdPercent: 85,
			CompareMode:      "cross_only",
			Workers:          1,
		},
		Output: config.OutputConfig{File: "", Format: "table"},
		Server: config.ServerConfig{
			Port:           8080,
			MaxUploadMB:    1,
			RateLimit:      100,
			RateBurst:      100,
			AllowedOrigins: []string{"*"},
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}
