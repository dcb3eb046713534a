package model

import "fmt"

// RecordRef identifies a record within one dataset.
// Row is the 1-based spreadsheet row the record was read from.
type RecordRef struct {
	Dataset string `json:"dataset" yaml:"dataset"`
	Row     int    `json:"row" yaml:"row"`
}

// Cell returns the first-column cell coordinate of the record, e.g. "A2".
func (r RecordRef) Cell() string {
	return fmt.Sprintf("A%d", r.Row)
}

// String renders the ref as "<dataset>!A<row>".
func (r RecordRef) String() string {
	return r.Dataset + "!" + r.Cell()
}

// Record is a single free-text entry of a dataset. An empty Text means the
// source cell was missing or blank.
type Record struct {
	Ref  RecordRef `json:"ref"`
	Text string    `json:"text"`
}

// Empty reports whether the record has no text to match on.
func (r Record) Empty() bool {
	return r.Text == ""
}

// Dataset is an ordered collection of records read from one source sheet.
type Dataset struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// Len returns the number of records in the dataset.
func (d Dataset) Len() int {
	return len(d.Records)
}
