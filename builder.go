package analystdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/driver"
	"golang.org/x/sync/errgroup"
)

// ImportResult describes one imported source.
type ImportResult struct {
	// Table is the sanitized session table name
	Table string `json:"table"`
	// Source is the file path, or the path inside an fs.FS, or the reader name
	Source string `json:"source"`
	// Rows is the number of rows appended
	Rows int `json:"rows"`
	// Compressed reports whether the source file was decompressed on read
	Compressed bool `json:"compressed"`
}

// importSource is one file to read, either from disk or from an fs.FS.
type importSource struct {
	path  string
	table string
	fsys  fs.FS
	// reader inputs carry their content and type directly
	reader   io.Reader
	fileType model.FileType
}

type pathInput struct {
	path  string
	table string
}

type readerInput struct {
	reader   io.Reader
	table    string
	fileType model.FileType
}

// Importer loads files into session tables of a Store.
//
// The typical usage pattern is:
//
//	importer, err := analystdb.NewImporter(store).
//		AddPath("data.csv").
//		AddFS(embeddedFS).
//		Build(ctx)
//	if err != nil {
//		return err
//	}
//	results, err := importer.Import(ctx)
type Importer struct {
	store       *Store
	paths       []pathInput
	filesystems []fs.FS
	readers     []readerInput
	concurrency int

	// sources contains every input after Build validation
	sources []importSource
	built   bool
}

// NewImporter creates an importer writing into store.
func NewImporter(store *Store) *Importer {
	return &Importer{
		store:       store,
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// AddPath adds a file or a directory. Directories contribute every supported
// file directly inside them, except hidden ones. The table name is derived
// from the file name without compression and format extensions.
func (i *Importer) AddPath(path string) *Importer {
	i.paths = append(i.paths, pathInput{path: path})
	return i
}

// AddPaths adds multiple files or directories.
func (i *Importer) AddPaths(paths ...string) *Importer {
	for _, p := range paths {
		i.AddPath(p)
	}
	return i
}

// AddPathAs adds one file imported under an explicit table name.
func (i *Importer) AddPathAs(path, table string) *Importer {
	i.paths = append(i.paths, pathInput{path: path, table: table})
	return i
}

// AddFS adds all supported files of an fs.FS, searched recursively.
//
// Example with embedded filesystem:
//
//	//go:embed data/*.csv
//	var dataFS embed.FS
//
//	subFS, _ := fs.Sub(dataFS, "data")
//	importer := analystdb.NewImporter(store).AddFS(subFS)
func (i *Importer) AddFS(fsys fs.FS) *Importer {
	i.filesystems = append(i.filesystems, fsys)
	return i
}

// AddReader adds uncompressed content of a known type under a table name.
func (i *Importer) AddReader(reader io.Reader, table string, fileType model.FileType) *Importer {
	i.readers = append(i.readers, readerInput{reader: reader, table: table, fileType: fileType})
	return i
}

// WithConcurrency limits how many files are decoded at once.
func (i *Importer) WithConcurrency(n int) *Importer {
	if n > 0 {
		i.concurrency = n
	}
	return i
}

// Build validates every input and collects the files to import:
//
//  1. at least one input is configured
//  2. every path exists and every file has a supported extension
//  3. directories and filesystems contain at least one supported file
//  4. reader inputs carry a table name and a supported type
func (i *Importer) Build(ctx context.Context) (*Importer, error) {
	if len(i.paths) == 0 && len(i.filesystems) == 0 && len(i.readers) == 0 {
		return nil, ErrNoInputs
	}

	v := newValidator()
	i.sources = nil

	for _, in := range i.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := v.validatePath(in.path); err != nil {
			return nil, NewErrorContext("import", in.path).Error(err)
		}
		sources, err := collectPath(in)
		if err != nil {
			return nil, NewErrorContext("import", in.path).Error(err)
		}
		i.sources = append(i.sources, sources...)
	}

	for _, fsys := range i.filesystems {
		if fsys == nil {
			return nil, errors.New("analystdb: FS cannot be nil")
		}
		sources, err := collectFS(fsys)
		if err != nil {
			return nil, NewErrorContext("import", "").Error(err)
		}
		i.sources = append(i.sources, sources...)
	}

	for _, in := range i.readers {
		if err := v.validateReader(in.reader, in.table, in.fileType); err != nil {
			return nil, NewErrorContext("import", "").WithTable(in.table).Error(err)
		}
		i.sources = append(i.sources, importSource{
			path:     in.table,
			table:    in.table,
			reader:   in.reader,
			fileType: in.fileType,
		})
	}

	if len(i.sources) == 0 {
		return nil, ErrNoInputs
	}
	i.built = true
	return i, nil
}

// Import decodes all sources concurrently, then registers them one by one in
// input order. It stops at the first failure; tables registered before it stay.
func (i *Importer) Import(ctx context.Context) ([]ImportResult, error) {
	if !i.built {
		return nil, errors.New("analystdb: importer is not built, did you call Build()?")
	}

	tables := make([]*model.Table, len(i.sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, src := range i.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := src.read()
			if err != nil {
				return NewErrorContext("read", src.path).WithTable(src.table).Error(err)
			}
			tables[idx] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(i.sources))
	for idx, src := range i.sources {
		table := tables[idx]
		if err := i.store.Register(ctx, src.table, table.Headers, table.Rows); err != nil {
			return results, err
		}
		results = append(results, ImportResult{
			Table:      model.Sanitize(src.table),
			Source:     src.path,
			Rows:       len(table.Rows),
			Compressed: src.reader == nil && model.NewFile(src.path).IsCompressed(),
		})
	}
	return results, nil
}

// read decodes the source. fs.FS files are decompressed the same way as disk files.
func (s importSource) read() (*model.Table, error) {
	switch {
	case s.reader != nil:
		return model.ReadReader(s.reader, s.fileType)
	case s.fsys != nil:
		fileType, compression := model.DetectFileType(s.path)
		if fileType == model.FileTypeUnsupported {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, s.path)
		}
		f, err := s.fsys.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		defer f.Close()

		r, cleanup, err := model.NewDecompressor(compression, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		defer func() {
			_ = cleanup()
		}()
		return model.ReadReader(r, fileType)
	default:
		return model.ReadFile(s.path)
	}
}

// collectPath expands a directory into its supported files, sorted by name.
func collectPath(in pathInput) ([]importSource, error) {
	info, err := os.Stat(in.path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		table := in.table
		if table == "" {
			table = model.NewFile(in.path).TableName()
		}
		return []importSource{{path: in.path, table: table}}, nil
	}

	entries, err := os.ReadDir(in.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var sources []importSource
	for _, entry := range entries {
		if entry.IsDir() || !driver.IsValidFileName(entry.Name()) || !model.MatchSupportedPattern(entry.Name()) {
			continue
		}
		path := filepath.Join(in.path, entry.Name())
		sources = append(sources, importSource{path: path, table: model.NewFile(path).TableName()})
	}
	if len(sources) == 0 {
		return nil, errors.New("no supported files found in directory")
	}
	return sources, nil
}

// collectFS walks fsys recursively for supported files.
func collectFS(fsys fs.FS) ([]importSource, error) {
	var sources []importSource
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !driver.IsValidFileName(d.Name()) || !model.MatchSupportedPattern(path) {
			return nil
		}
		sources = append(sources, importSource{path: path, table: model.NewFile(path).TableName(), fsys: fsys})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk filesystem: %w", err)
	}
	if len(sources) == 0 {
		return nil, errors.New("no supported files found in filesystem")
	}
	return sources, nil
}
