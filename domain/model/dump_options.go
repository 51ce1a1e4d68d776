package model

import "fmt"

// OutputFormat represents the output file format of a dump
type OutputFormat int

const (
	// OutputFormatCSV represents CSV output format
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV
	// OutputFormatLTSV represents LTSV output format
	OutputFormatLTSV
	// OutputFormatXLSX represents an Excel workbook with one sheet
	OutputFormatXLSX
	// OutputFormatParquet represents a snappy compressed Parquet file of string columns
	OutputFormatParquet
)

// String returns the string representation of OutputFormat
func (f OutputFormat) String() string {
	switch f {
	case OutputFormatTSV:
		return "tsv"
	case OutputFormatLTSV:
		return "ltsv"
	case OutputFormatXLSX:
		return "xlsx"
	case OutputFormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format
func (f OutputFormat) Extension() string {
	switch f {
	case OutputFormatTSV:
		return ExtTSV
	case OutputFormatLTSV:
		return ExtLTSV
	case OutputFormatXLSX:
		return ExtXLSX
	case OutputFormatParquet:
		return ExtParquet
	default:
		return ExtCSV
	}
}

// ParseOutputFormat converts a configuration value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "csv":
		return OutputFormatCSV, nil
	case "tsv":
		return OutputFormatTSV, nil
	case "ltsv":
		return OutputFormatLTSV, nil
	case "xlsx":
		return OutputFormatXLSX, nil
	case "parquet":
		return OutputFormatParquet, nil
	default:
		return OutputFormatCSV, fmt.Errorf("unknown output format %q", s)
	}
}

// DumpOptions configures how session tables are exported to files.
//
// Example:
//
//	options := model.NewDumpOptions().
//		WithFormat(model.OutputFormatTSV).
//		WithCompression(model.CompressionGZ)
//
//	err := store.Dump(ctx, "./output", options)
type DumpOptions struct {
	// Format specifies the output file format
	Format OutputFormat
	// Compression specifies the compression type
	Compression CompressionType
}

// NewDumpOptions creates default export options (CSV, no compression).
func NewDumpOptions() DumpOptions {
	return DumpOptions{
		Format:      OutputFormatCSV,
		Compression: CompressionNone,
	}
}

// WithFormat sets the output file format.
func (o DumpOptions) WithFormat(format OutputFormat) DumpOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to output files.
// Workbooks and parquet files ignore it.
func (o DumpOptions) WithCompression(compression CompressionType) DumpOptions {
	o.Compression = compression
	return o
}

// binary reports whether the format is a container that is never compressed again.
func (f OutputFormat) binary() bool {
	return f == OutputFormatXLSX || f == OutputFormatParquet
}

// EffectiveCompression returns the compression actually applied to output files.
func (o DumpOptions) EffectiveCompression() CompressionType {
	if o.Format.binary() {
		return CompressionNone
	}
	return o.Compression
}

// FileExtension returns the complete file extension including compression
func (o DumpOptions) FileExtension() string {
	return o.Format.Extension() + o.EffectiveCompression().Extension()
}

// Validate reports whether the options can be written.
func (o DumpOptions) Validate() error {
	if o.EffectiveCompression() == CompressionBZ2 {
		return fmt.Errorf("%w: %s", ErrCompressionNotWritable, o.Compression)
	}
	return nil
}
