package model

import (
	"path/filepath"
	"strings"
)

// Table is the raw output of the tabular reader.
// Every cell is a string and every row has len(Headers) cells.
type Table struct {
	// Headers holds the column names in source order.
	Headers []string `json:"cols"`
	// Rows holds the records after the header row.
	Rows [][]string `json:"rows"`
}

// NewTable create new Table.
func NewTable(header Header, records []Record) *Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string(r)
	}
	return &Table{
		Headers: []string(header),
		Rows:    rows,
	}
}

// Header return table header.
func (t *Table) Header() Header {
	return NewHeader(t.Headers)
}

// Records return table records.
func (t *Table) Records() []Record {
	records := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		records[i] = NewRecord(r)
	}
	return records
}

// Equal compare Table.
func (t *Table) Equal(t2 *Table) bool {
	if !t.Header().Equal(t2.Header()) {
		return false
	}
	if len(t.Rows) != len(t2.Rows) {
		return false
	}
	for i, record := range t.Records() {
		if !record.Equal(t2.Rows[i]) {
			return false
		}
	}
	return true
}

// TableFromFilePath creates table name from file path.
// One compression extension and then one format extension are removed.
func TableFromFilePath(filePath string) string {
	fileName, _ := splitCompression(filepath.Base(filePath))
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
