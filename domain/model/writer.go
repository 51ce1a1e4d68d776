package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// defaultSheetName is the sheet written by WriteXLSX.
const defaultSheetName = "Sheet1"

// WriteTable writes t to w in the given format.
func WriteTable(w io.Writer, t *Table, format OutputFormat) error {
	switch format {
	case OutputFormatCSV:
		return writeDelimited(w, t, csvDelimiter)
	case OutputFormatTSV:
		return writeDelimited(w, t, tsvDelimiter)
	case OutputFormatLTSV:
		return writeLTSV(w, t)
	case OutputFormatXLSX:
		return writeXLSX(w, t)
	case OutputFormatParquet:
		return writeParquet(w, t)
	default:
		return fmt.Errorf("unsupported output format: %v", format)
	}
}

func writeDelimited(w io.Writer, t *Table, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := csvWriter.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := csvWriter.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// writeLTSV writes one "label:value" tab separated line per row.
func writeLTSV(w io.Writer, t *Table) error {
	var line strings.Builder
	for _, row := range t.Rows {
		line.Reset()
		for i, h := range t.Headers {
			if i > 0 {
				line.WriteByte('\t')
			}
			line.WriteString(h)
			line.WriteByte(':')
			if i < len(row) {
				line.WriteString(ltsvEscaper.Replace(row[i]))
			}
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

var ltsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func writeXLSX(w io.Writer, t *Table) error {
	xlsx := excelize.NewFile()
	defer func() {
		_ = xlsx.Close()
	}()

	for i, h := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := xlsx.SetCellValue(defaultSheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := xlsx.SetCellStr(defaultSheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	if _, err := xlsx.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeParquet stores every column as a nullable utf8 column.
func writeParquet(w io.Writer, t *Table) error {
	fields := make([]arrow.Field, len(t.Headers))
	for i, h := range t.Headers {
		fields[i] = arrow.Field{Name: h, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range t.Rows {
		for i := range t.Headers {
			sb, ok := builder.Field(i).(*array.StringBuilder)
			if !ok {
				return fmt.Errorf("unexpected builder for column %s", t.Headers[i])
			}
			if i < len(row) {
				sb.Append(row[i])
			} else {
				sb.AppendNull()
			}
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// the parquet writer closes its sink when it is a Closer
	writer, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	return writer.Close()
}
