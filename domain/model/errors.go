// Package model provides the domain model for analystdb: identifier
// sanitizing, file type detection and the tabular reader that turns CSV,
// TSV, Excel and Parquet files into rows of strings.
package model

import "errors"

var (
	// ErrUnsupportedFileType is returned when a path has an extension the reader does not handle
	ErrUnsupportedFileType = errors.New("analystdb: unsupported file type")

	// ErrEmptyData is returned when a source contains no records at all
	ErrEmptyData = errors.New("analystdb: empty data source")

	// ErrRead wraps every failure of the underlying format decoders
	ErrRead = errors.New("analystdb: read error")

	// ErrCompressionNotWritable is returned for compression types that have no writer
	ErrCompressionNotWritable = errors.New("analystdb: compression type is not supported for writing")
)
