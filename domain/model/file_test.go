package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func compressBytes(t *testing.T, c CompressionType, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, closeWriter, err := NewCompressor(c, &buf)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, closeWriter())
	return buf.Bytes()
}

func TestReadFile_CSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "people.csv", []byte("id,name\n1,alice\n2,\"bob, jr\"\n"))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.Headers)
	assert.Equal(t, [][]string{{"1", "alice"}, {"2", "bob, jr"}}, table.Rows)
}

func TestReadFile_HeaderOnly(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "empty_rows.csv", []byte("a,b\n"))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestReadFile_TSV(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "data.tsv", []byte("a\tb\n1\t2\n"))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)
}

func TestReadFile_Compressed(t *testing.T) {
	t.Parallel()

	content := []byte("id,value\n1,x\n2,y\n")
	for _, c := range []CompressionType{CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, t.TempDir(), "data.csv"+c.Extension(), compressBytes(t, c, content))
			table, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "value"}, table.Headers)
			assert.Equal(t, [][]string{{"1", "x"}, {"2", "y"}}, table.Rows)
		})
	}
}

func TestReadFile_RaggedCSV(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "ragged.csv", []byte("a,b\n1,2,3\n"))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrRead)
}

func TestReadFile_EmptyCSV(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "empty.csv", nil)

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrEmptyData)
}

func TestReadFile_UnsupportedIsNotOpened(t *testing.T) {
	t.Parallel()

	// the file does not exist, so any attempt to open it would surface a different error
	path := filepath.Join(t.TempDir(), "data.txt")

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	require.NotErrorIs(t, err, ErrRead)
}

func TestReadFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, ErrRead)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFile_XLSX(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "score"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"alice", 90}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"bob"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"carol", 75, "extra"}))
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "not read"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score", ""}, table.Headers)
	assert.Equal(t, [][]string{
		{"alice", "90", ""},
		{"bob", "", ""},
		{"carol", "75", "extra"},
	}, table.Rows)
}

func TestReadFile_EmptyXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrEmptyData)
}

func TestReadFile_CorruptXLSX(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "broken.xlsx", []byte("this is not a zip archive"))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrRead)
}

func TestReadFile_Parquet(t *testing.T) {
	t.Parallel()

	want := &Table{
		Headers: []string{"id", "city"},
		Rows:    [][]string{{"1", "Tokyo"}, {"2", "Osaka"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, want, OutputFormatParquet))

	path := writeTestFile(t, t.TempDir(), "cities.parquet", buf.Bytes())
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "got %+v", got)
}

func TestReadFile_CorruptParquet(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "broken.parquet", []byte("PAR1 nope"))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrRead)
}

func TestReadReader_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := ReadReader(bytes.NewReader(nil), FileTypeUnsupported)
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestConvertXLSXRowsToTable(t *testing.T) {
	t.Parallel()

	header, records := convertXLSXRowsToTable([][]string{{"a"}, {"1", "2"}, {}})
	assert.Equal(t, Header{"a", ""}, header)
	assert.Equal(t, []Record{{"1", "2"}, {"", ""}}, records)
}

func TestFile_Accessors(t *testing.T) {
	t.Parallel()

	f := NewFile("/data/sales.tsv.gz")
	assert.Equal(t, "/data/sales.tsv.gz", f.Path())
	assert.Equal(t, FileTypeTSV, f.Type())
	assert.Equal(t, CompressionGZ, f.Compression())
	assert.True(t, f.IsCompressed())
	assert.Equal(t, "sales", f.TableName())
}
