// Package sheet reads the crew spreadsheet: the Agents, Tasks, Crew and Models tables.
// A source is either a Google Sheets URL, read through the CSV export endpoint, or a local
// directory holding one <table>.csv file per table.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// naMarkers are cell values treated as "no value", the default NA set of pandas.read_csv.
var naMarkers = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// IsNA reports whether a cell value is a not-a-value marker.
func IsNA(v string) bool {
	return naMarkers[strings.TrimSpace(v)]
}

// Table is one parsed sheet. The zero-row table stands for an absent optional sheet.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
	index   map[string]int
}

// Row is a single data row of a table.
type Row struct {
	Num   int // 1-based data row number, the header is row 0
	cells []string
	index map[string]int
}

// NewTable builds a table from a header and data rows; used by parsing and by tests.
func NewTable(name string, columns []string, rows ...[]string) *Table {
	t := &Table{Name: name, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		c = strings.TrimSpace(c)
		t.Columns = append(t.Columns, c)
		if _, dup := t.index[c]; !dup && c != "" {
			t.index[c] = i
		}
	}
	for i, cells := range rows {
		t.Rows = append(t.Rows, Row{Num: i + 1, cells: cells, index: t.index})
	}
	return t
}

// Len returns the number of data rows, zero for a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table header has the column.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[col]
	return ok
}

// First returns the first data row, false when the table has none.
func (t *Table) First() (Row, bool) {
	if t.Len() == 0 {
		return Row{}, false
	}
	return t.Rows[0], true
}

// Value returns the raw cell of a column. It returns false when the column does not exist
// or the cell holds a not-a-value marker.
func (r Row) Value(col string) (string, bool) {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return "", false
	}
	v := r.cells[i]
	if IsNA(v) {
		return "", false
	}
	return v, true
}

// Get returns the trimmed cell value, empty when absent.
func (r Row) Get(col string) string {
	v, _ := r.Value(col)
	return strings.TrimSpace(v)
}

// Parse reads CSV data into a table. The first record is the header, blank records are skipped.
func Parse(name string, data io.Reader) (*Table, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return NewTable(name, nil), nil
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return NewTable(name, records[0], rows...), nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
