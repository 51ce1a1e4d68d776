package model

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// File represents a file that can be converted to Table
type File struct {
	path        string
	fileType    FileType
	compression CompressionType
}

// NewFile creates a new File
func NewFile(path string) *File {
	ft, compression := DetectFileType(path)
	return &File{
		path:        path,
		fileType:    ft,
		compression: compression,
	}
}

// Path returns file path
func (f *File) Path() string {
	return f.path
}

// Type returns the base file type
func (f *File) Type() FileType {
	return f.fileType
}

// Compression returns the compression detected from the path
func (f *File) Compression() CompressionType {
	return f.compression
}

// IsCompressed returns true if file is compressed
func (f *File) IsCompressed() bool {
	return f.compression != CompressionNone
}

// TableName returns the default session table name for this file
func (f *File) TableName() string {
	return TableFromFilePath(f.path)
}

// ToTable reads the whole file. Unsupported types fail before the file is opened.
func (f *File) ToTable() (*Table, error) {
	if f.fileType == FileTypeUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.path)
	}

	file, err := os.Open(f.path) //nolint:gosec // reading user-selected files is the point
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer file.Close()

	reader, cleanup, err := NewDecompressor(f.compression, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() {
		_ = cleanup()
	}()

	return ReadReader(reader, f.fileType)
}

// ReadFile reads a tabular file into a Table, dispatching on its extension.
func ReadFile(path string) (*Table, error) {
	return NewFile(path).ToTable()
}

// ReadReader decodes already decompressed content of the given type.
func ReadReader(r io.Reader, fileType FileType) (*Table, error) {
	switch fileType {
	case FileTypeCSV:
		return parseDelimited(r, csvDelimiter)
	case FileTypeTSV:
		return parseDelimited(r, tsvDelimiter)
	case FileTypeXLSX:
		return parseXLSX(r)
	case FileTypeParquet:
		return parseParquet(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, fileType)
	}
}

// parseDelimited treats the first record as headers. Ragged records are a decode error.
func parseDelimited(r io.Reader, delimiter rune) (*Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	if delimiter == tsvDelimiter {
		csvReader.LazyQuotes = true
	}

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyData
	}

	header := NewHeader(records[0])
	tableRecords := make([]Record, 0, len(records)-1)
	for _, rec := range records[1:] {
		tableRecords = append(tableRecords, NewRecord(rec))
	}
	return NewTable(header, tableRecords), nil
}

// parseXLSX reads the first sheet only, using each cell's formatted value.
func parseXLSX(r io.Reader) (*Table, error) {
	xlsxFile, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() {
		_ = xlsxFile.Close()
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, ErrEmptyData
	}

	rows, err := xlsxFile.GetRows(sheetNames[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrRead, sheetNames[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyData
	}

	header, records := convertXLSXRowsToTable(rows)
	return NewTable(header, records), nil
}

// convertXLSXRowsToTable pads every row, header included, to the widest row.
// excelize trims trailing empty cells, so rows come back ragged.
func convertXLSXRowsToTable(rows [][]string) (Header, []Record) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	pad := func(row []string) []string {
		padded := make([]string, width)
		copy(padded, row)
		return padded
	}

	header := NewHeader(pad(rows[0]))
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, NewRecord(pad(row)))
	}
	return header, records
}

// parseParquet loads the whole file into memory since parquet needs random access.
// Field names become headers and nulls become empty strings.
func parseParquet(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parquet: %w", ErrRead, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: parquet: %w", ErrRead, err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: parquet: %w", ErrRead, err)
	}
	defer table.Release()

	schema := table.Schema()
	if schema.NumFields() == 0 {
		return nil, ErrEmptyData
	}
	header := make(Header, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	records := make([]Record, 0, table.NumRows())
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(Record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("%w: parquet: %w", ErrRead, err)
	}
	return NewTable(header, records), nil
}

func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	return col.ValueStr(i)
}
