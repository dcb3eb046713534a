// Package workbook reads datasets from an xlsx workbook and writes match
// markers back onto it.
package workbook

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/phrase-matcher/internal/model"
)

// Fill colors applied to marked cells (ARGB).
const (
	CrossMatchColor = "FFC6EFCE" // green
	SelfMatchColor  = "FFFFF3CD" // yellow
)

// headerRows is the number of leading rows skipped on every sheet.
const headerRows = 1

// textColumn is the index of the column holding the record text.
const textColumn = 0

// Workbook wraps an xlsx file. It is not safe for concurrent use.
type Workbook struct {
	file *xlsx.File
}

// Open reads a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}
	return &Workbook{file: f}, nil
}

// OpenBytes reads a workbook from its serialized form.
func OpenBytes(b []byte) (*Workbook, error) {
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open binary")
	}
	return &Workbook{file: f}, nil
}

// OpenReader reads a workbook from r.
func OpenReader(r io.Reader) (*Workbook, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: read")
	}
	return OpenBytes(b)
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.file.Sheets))
	for i, s := range w.file.Sheets {
		names[i] = s.Name
	}
	return names
}

// Datasets returns one dataset per sheet, in workbook order. Each record is
// the first cell of a row below the header; missing cells yield empty text.
func (w *Workbook) Datasets() []model.Dataset {
	out := make([]model.Dataset, len(w.file.Sheets))
	for i, s := range w.file.Sheets {
		out[i] = sheetDataset(s)
	}
	return out
}

// Pair returns the datasets of the first two sheets. ok is false when the
// workbook has fewer than two sheets.
func (w *Workbook) Pair() (a, b model.Dataset, ok bool) {
	if len(w.file.Sheets) < 2 {
		return model.Dataset{}, model.Dataset{}, false
	}
	return sheetDataset(w.file.Sheets[0]), sheetDataset(w.file.Sheets[1]), true
}

func sheetDataset(s *xlsx.Sheet) model.Dataset {
	d := model.Dataset{Name: s.Name}
	for i, row := range s.Rows {
		if i < headerRows {
			continue
		}
		d.Records = append(d.Records, model.Record{
			Ref:  model.RecordRef{Dataset: s.Name, Row: i + 1},
			Text: cellText(row),
		})
	}
	return d
}

func cellText(row *xlsx.Row) string {
	if c := textCell(row); c != nil {
		return c.String()
	}
	return ""
}

func textCell(row *xlsx.Row) *xlsx.Cell {
	if row == nil || len(row.Cells) <= textColumn {
		return nil
	}
	return row.Cells[textColumn]
}

// ApplyMarks fills the text cell of every marked record. NoMatch leaves the
// cell untouched, as do refs that do not resolve to a cell. It returns the
// number of cells filled.
func (w *Workbook) ApplyMarks(marks map[model.RecordRef]model.Marker) int {
	applied := 0
	for ref, m := range marks {
		color := markerColor(m)
		if color == "" {
			continue
		}
		cell := w.cell(ref)
		if cell == nil {
			continue
		}

		// Styles may be shared between cells; fill a copy.
		style := *cell.GetStyle()
		style.Fill = *xlsx.NewFill("solid", color, color)
		style.ApplyFill = true
		cell.SetStyle(&style)
		applied++
	}
	return applied
}

func (w *Workbook) cell(ref model.RecordRef) *xlsx.Cell {
	s, ok := w.file.Sheet[ref.Dataset]
	if !ok || ref.Row < 1 || ref.Row > len(s.Rows) {
		return nil
	}
	return textCell(s.Rows[ref.Row-1])
}

// FillColor returns the fill color of the record's text cell, or "" when the
// cell is missing or not filled.
func (w *Workbook) FillColor(ref model.RecordRef) string {
	cell := w.cell(ref)
	if cell == nil {
		return ""
	}
	fill := cell.GetStyle().Fill
	if fill.PatternType != "solid" {
		return ""
	}
	return fill.FgColor
}

func markerColor(m model.Marker) string {
	switch m {
	case model.CrossMatch:
		return CrossMatchColor
	case model.SelfMatch:
		return SelfMatchColor
	default:
		return ""
	}
}

// Write serializes the workbook to dst.
func (w *Workbook) Write(dst io.Writer) error {
	if err := w.file.Write(dst); err != nil {
		return eris.Wrap(err, "workbook: write")
	}
	return nil
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	if err := w.file.Save(path); err != nil {
		return eris.Wrap(err, "workbook: save")
	}
	return nil
}

// Bytes returns the serialized workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
