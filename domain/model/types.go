package model

import (
	"path/filepath"
	"strings"
)

// Character validation constants
const (
	// firstDigitChar represents the first numeric character
	firstDigitChar = '0'
	// lastDigitChar represents the last numeric character
	lastDigitChar = '9'
	// firstLowerChar represents the first lowercase letter
	firstLowerChar = 'a'
	// lastLowerChar represents the last lowercase letter
	lastLowerChar = 'z'
	// firstUpperChar represents the first uppercase letter
	firstUpperChar = 'A'
	// lastUpperChar represents the last uppercase letter
	lastUpperChar = 'Z'
	// underscoreChar represents the underscore character
	underscoreChar = '_'
)

// DefaultIdentifier is used when a name has nothing left to sanitize.
const DefaultIdentifier = "session_table"

// Sanitize turns an arbitrary name into a safe SQL identifier.
// Every rune that is not an ASCII letter, digit or underscore becomes '_'.
// Blank input yields DefaultIdentifier.
func Sanitize(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultIdentifier
	}

	var sanitized strings.Builder
	sanitized.Grow(len(name))
	for _, r := range name {
		if isIdentifierRune(r) {
			sanitized.WriteRune(r)
			continue
		}
		sanitized.WriteRune(underscoreChar)
	}
	return sanitized.String()
}

// SanitizeAll sanitizes each name independently. Collisions are kept as is.
func SanitizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = Sanitize(name)
	}
	return out
}

func isIdentifierRune(r rune) bool {
	return (r >= firstLowerChar && r <= lastLowerChar) ||
		(r >= firstUpperChar && r <= lastUpperChar) ||
		(r >= firstDigitChar && r <= lastDigitChar) ||
		r == underscoreChar
}

// QuoteIdentifier wraps an already sanitized identifier in brackets.
func QuoteIdentifier(ident string) string {
	return "[" + ident + "]"
}

// Header is file header.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is one row of a file, every cell already reduced to text.
type Record []string

// NewRecord create new Record.
func NewRecord(r []string) Record {
	return Record(r)
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// FileType represents a supported source format, independent of compression
type FileType int

const (
	// FileTypeCSV represents comma separated text
	FileTypeCSV FileType = iota
	// FileTypeTSV represents tab separated text
	FileTypeTSV
	// FileTypeXLSX represents an Excel workbook (.xlsx or .xlsm)
	FileTypeXLSX
	// FileTypeParquet represents an Apache Parquet file
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtTSV is the TSV file extension
	ExtTSV = ".tsv"
	// ExtLTSV is the LTSV file extension, only produced by dumps
	ExtLTSV = ".ltsv"
	// ExtXLSX is the Excel workbook extension
	ExtXLSX = ".xlsx"
	// ExtXLSM is the macro-enabled Excel workbook extension
	ExtXLSM = ".xlsm"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

// File format delimiters
const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// String returns a short name of the file type
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeXLSX:
		return "xlsx"
	case FileTypeParquet:
		return "parquet"
	default:
		return "unsupported"
	}
}

// compressionExts lists compression suffixes in detection order
var compressionExts = []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD}

// splitCompression strips one compression suffix, matched case-insensitively.
func splitCompression(path string) (string, CompressionType) {
	lower := strings.ToLower(path)
	for _, ext := range compressionExts {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)], compressionFromExt(ext)
		}
	}
	return path, CompressionNone
}

// DetectFileType detects the base format and compression of a path from its extensions.
func DetectFileType(path string) (FileType, CompressionType) {
	basePath, compression := splitCompression(path)

	switch strings.ToLower(filepath.Ext(basePath)) {
	case ExtCSV:
		return FileTypeCSV, compression
	case ExtTSV:
		return FileTypeTSV, compression
	case ExtXLSX, ExtXLSM:
		return FileTypeXLSX, compression
	case ExtParquet:
		return FileTypeParquet, compression
	default:
		return FileTypeUnsupported, compression
	}
}

// IsSupportedFile checks if the file has a supported extension
func IsSupportedFile(path string) bool {
	ft, _ := DetectFileType(path)
	return ft != FileTypeUnsupported
}

// SupportedFileExtPatterns returns all supported file patterns for glob matching
func SupportedFileExtPatterns() []string {
	baseExts := []string{ExtCSV, ExtTSV, ExtXLSX, ExtXLSM, ExtParquet}
	compression := append([]string{""}, compressionExts...)

	var patterns []string
	for _, baseExt := range baseExts {
		for _, compressionExt := range compression {
			patterns = append(patterns, "*"+baseExt+compressionExt)
		}
	}
	return patterns
}

// MatchSupportedPattern reports whether the base name of path matches one of
// SupportedFileExtPatterns, ignoring case.
func MatchSupportedPattern(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, pattern := range SupportedFileExtPatterns() {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
