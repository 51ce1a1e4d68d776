package model

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already valid", input: "sales_2024", want: "sales_2024"},
		{name: "spaces and dashes", input: "my sheet-1", want: "my_sheet_1"},
		{name: "dot in name", input: "data.csv", want: "data_csv"},
		{name: "empty", input: "", want: "session_table"},
		{name: "whitespace only", input: " \t\n", want: "session_table"},
		{name: "leading digit kept", input: "2024 report", want: "2024_report"},
		{name: "multibyte runes replaced one for one", input: "売上", want: "__"},
		{name: "sql injection attempt", input: "t]; DROP TABLE x;--", want: "t___DROP_TABLE_x___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeOnlyEmitsIdentifierCharacters(t *testing.T) {
	t.Parallel()

	valid := regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	inputs := []string{"", " ", "a b c", "ü", "\x00\xff", "col(1)", "[bracket]", "emoji😀", "tab\there"}
	for _, in := range inputs {
		got := Sanitize(in)
		assert.Regexp(t, valid, got, "input %q", in)
	}
}

func TestSanitizeAll(t *testing.T) {
	t.Parallel()

	got := SanitizeAll([]string{"first name", "first-name", ""})
	assert.Equal(t, []string{"first_name", "first_name", "session_table"}, got)
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[1st]", QuoteIdentifier("1st"))
}

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path        string
		fileType    FileType
		compression CompressionType
	}{
		{"data.csv", FileTypeCSV, CompressionNone},
		{"DATA.CSV", FileTypeCSV, CompressionNone},
		{"data.tsv", FileTypeTSV, CompressionNone},
		{"book.xlsx", FileTypeXLSX, CompressionNone},
		{"book.xlsm", FileTypeXLSX, CompressionNone},
		{"data.parquet", FileTypeParquet, CompressionNone},
		{"data.csv.gz", FileTypeCSV, CompressionGZ},
		{"data.tsv.bz2", FileTypeTSV, CompressionBZ2},
		{"data.csv.xz", FileTypeCSV, CompressionXZ},
		{"data.parquet.zst", FileTypeParquet, CompressionZSTD},
		{"data.CSV.GZ", FileTypeCSV, CompressionGZ},
		{"data.txt", FileTypeUnsupported, CompressionNone},
		{"data.ltsv", FileTypeUnsupported, CompressionNone},
		{"data.gz", FileTypeUnsupported, CompressionGZ},
		{"noext", FileTypeUnsupported, CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			ft, c := DetectFileType(tt.path)
			assert.Equal(t, tt.fileType, ft)
			assert.Equal(t, tt.compression, c)
			assert.Equal(t, tt.fileType != FileTypeUnsupported, IsSupportedFile(tt.path))
		})
	}
}

func TestSupportedFileExtPatterns(t *testing.T) {
	t.Parallel()

	patterns := SupportedFileExtPatterns()
	assert.Len(t, patterns, 25)
	assert.Contains(t, patterns, "*.csv")
	assert.Contains(t, patterns, "*.xlsm")
	assert.Contains(t, patterns, "*.parquet.zst")
	assert.NotContains(t, patterns, "*.txt")
}

func TestMatchSupportedPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"sales.csv", true},
		{"dir/SALES.CSV.GZ", true},
		{"report.xlsm", true},
		{"events.parquet.zst", true},
		{"notes.txt", false},
		{"archive.csv.zip", false},
		{"csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchSupportedPattern(tt.path))
			assert.Equal(t, IsSupportedFile(tt.path), MatchSupportedPattern(tt.path))
		})
	}
}

func TestHeaderAndRecordEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, NewHeader([]string{"a", "b"}).Equal(Header{"a", "b"}))
	assert.False(t, NewHeader([]string{"a", "b"}).Equal(Header{"a"}))
	assert.False(t, NewRecord([]string{"1", "2"}).Equal(Record{"1", "3"}))
	assert.True(t, NewRecord(nil).Equal(Record{}))
}
