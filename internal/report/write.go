package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format selects how the summary table is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// Columns are the summary table headers.
var Columns = []string{"Sheet1 Row", "Sheet2 Row", "Matched Phrase 1", "Matched Phrase 2", "Cross-Sheet?"}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("report: unknown format %q", s)
	}
}

// Write renders the summary rows of rep to w. The table format prints
// NoMatchesWarning instead of an empty table; the structured formats emit an
// empty list so that consumers can tell "no matches" from a failed run.
func Write(w io.Writer, rep *Report, format Format) error {
	switch format {
	case FormatTable:
		return writeTable(w, rep)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep.Rows); err != nil {
			return eris.Wrap(err, "report: encode json")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep.Rows); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml encoder")
	case FormatCSV:
		return writeCSV(w, rep)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

func writeTable(w io.Writer, rep *Report) error {
	if rep.NoMatches {
		_, err := fmt.Fprintln(w, NoMatchesWarning)
		return eris.Wrap(err, "report: write warning")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(Columns, "\t"))
	for _, r := range rep.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			oneLine(r.TextA), oneLine(r.TextB), r.PhraseA, r.PhraseB, yesNo(r.IsCross))
	}
	return eris.Wrap(tw.Flush(), "report: flush table")
}

func writeCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range rep.Rows {
		rec := []string{r.TextA, r.TextB, r.PhraseA, r.PhraseB, strconv.FormatBool(r.IsCross)}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// oneLine collapses line breaks and tabs so that multi-line cells do not
// break the column layout.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
