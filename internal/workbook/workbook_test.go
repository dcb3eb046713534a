package workbook

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/phrase-matcher/internal/model"
)

type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func twoSheets() []testSheet {
	return []testSheet{
		{name: "Catalog A", rows: [][]string{
			{"Description", "Price"},
			{"The quick brown fox jumps", "10"},
			{"", "11"},
			{"Red apple pie", "12"},
		}},
		{name: "Catalog B", rows: [][]string{
			{"Description"},
			{"A quick brown fox leaps"},
		}},
	}
}

func TestOpen_Datasets(t *testing.T) {
	wb, err := Open(createTestXLSX(t, twoSheets()...))
	require.NoError(t, err)

	assert.Equal(t, []string{"Catalog A", "Catalog B"}, wb.SheetNames())

	ds := wb.Datasets()
	require.Len(t, ds, 2)

	assert.Equal(t, "Catalog A", ds[0].Name)
	require.Len(t, ds[0].Records, 3)
	assert.Equal(t, model.Record{
		Ref:  model.RecordRef{Dataset: "Catalog A", Row: 2},
		Text: "The quick brown fox jumps",
	}, ds[0].Records[0])
	assert.True(t, ds[0].Records[1].Empty())
	assert.Equal(t, 3, ds[0].Records[1].Ref.Row)
	assert.Equal(t, "Red apple pie", ds[0].Records[2].Text)

	require.Len(t, ds[1].Records, 1)
	assert.Equal(t, "A quick brown fox leaps", ds[1].Records[0].Text)
}

func TestPair(t *testing.T) {
	wb, err := Open(createTestXLSX(t, twoSheets()...))
	require.NoError(t, err)

	a, b, ok := wb.Pair()
	require.True(t, ok)
	assert.Equal(t, "Catalog A", a.Name)
	assert.Equal(t, "Catalog B", b.Name)
}

func TestPair_SingleSheet(t *testing.T) {
	wb, err := Open(createTestXLSX(t, testSheet{name: "Only", rows: [][]string{{"h"}, {"text here"}}}))
	require.NoError(t, err)

	_, _, ok := wb.Pair()
	assert.False(t, ok)
	assert.Len(t, wb.Datasets(), 1)
}

func TestPair_ExtraSheetsIgnored(t *testing.T) {
	sheets := append(twoSheets(), testSheet{name: "Notes", rows: [][]string{{"x"}, {"y"}}})
	wb, err := Open(createTestXLSX(t, sheets...))
	require.NoError(t, err)

	a, b, ok := wb.Pair()
	require.True(t, ok)
	assert.Equal(t, "Catalog A", a.Name)
	assert.Equal(t, "Catalog B", b.Name)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workbook: open file")

	_, err = OpenBytes([]byte("not a zip archive"))
	require.Error(t, err)

	_, err = OpenReader(bytes.NewReader([]byte("still not a workbook")))
	require.Error(t, err)
}

func TestOpenReader(t *testing.T) {
	b, err := os.ReadFile(createTestXLSX(t, twoSheets()...))
	require.NoError(t, err)

	wb, err := OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Len(t, wb.Datasets(), 2)
}

func TestApplyMarks(t *testing.T) {
	wb, err := Open(createTestXLSX(t, twoSheets()...))
	require.NoError(t, err)

	a2 := model.RecordRef{Dataset: "Catalog A", Row: 2}
	a4 := model.RecordRef{Dataset: "Catalog A", Row: 4}
	b2 := model.RecordRef{Dataset: "Catalog B", Row: 2}
	a3 := model.RecordRef{Dataset: "Catalog A", Row: 3}

	applied := wb.ApplyMarks(map[model.RecordRef]model.Marker{
		a2: model.CrossMatch,
		b2: model.CrossMatch,
		a4: model.SelfMatch,
		a3: model.NoMatch,
		{Dataset: "Missing", Row: 2}:   model.CrossMatch,
		{Dataset: "Catalog B", Row: 40}: model.CrossMatch,
	})
	assert.Equal(t, 3, applied)

	assert.Equal(t, CrossMatchColor, wb.FillColor(a2))
	assert.Equal(t, CrossMatchColor, wb.FillColor(b2))
	assert.Equal(t, SelfMatchColor, wb.FillColor(a4))
	assert.Empty(t, wb.FillColor(a3))
	assert.Empty(t, wb.FillColor(model.RecordRef{Dataset: "Catalog A", Row: 1}))
}

func TestWriteRoundTrip(t *testing.T) {
	wb, err := Open(createTestXLSX(t, twoSheets()...))
	require.NoError(t, err)
	wb.ApplyMarks(map[model.RecordRef]model.Marker{
		{Dataset: "Catalog A", Row: 2}: model.CrossMatch,
	})

	b, err := wb.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, b)

	reopened, err := OpenBytes(b)
	require.NoError(t, err)
	assert.Equal(t, wb.Datasets(), reopened.Datasets())

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, wb.Save(path))
	fromDisk, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Catalog A", "Catalog B"}, fromDisk.SheetNames())
}
