package analystdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/analystdb/domain/model"
)

// Dump writes every user table of the current connection to outputDir, one
// file per table named after the table with the format and compression
// extensions appended. NULL becomes the empty string and blobs BlobSentinel.
//
// Example:
//
//	options := model.NewDumpOptions().
//		WithFormat(model.OutputFormatTSV).
//		WithCompression(model.CompressionZSTD)
//	err := store.Dump(ctx, "./export", options) // writes ./export/<table>.tsv.zst
func (s *Store) Dump(ctx context.Context, outputDir string, options model.DumpOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.connection(); err != nil {
		return err
	}
	return s.dumpLocked(ctx, outputDir, options)
}

func (s *Store) dumpLocked(ctx context.Context, outputDir string, options model.DumpOptions) error {
	errCtx := NewErrorContext("dump", outputDir)
	if err := options.Validate(); err != nil {
		return errCtx.Error(err)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return errCtx.Error(fmt.Errorf("failed to create output directory: %w", err))
	}

	tables, err := tableNames(ctx, s.db)
	if err != nil {
		return errCtx.Wrap(ErrExec, err)
	}

	for _, table := range tables {
		data, err := loadTable(ctx, s.db, table)
		if err != nil {
			return errCtx.WithTable(table).Wrap(ErrExec, err)
		}

		outputPath := filepath.Join(outputDir, model.Sanitize(table)+options.FileExtension())
		if err := writeTableFile(outputPath, data, options); err != nil {
			return errCtx.WithTable(table).Error(err)
		}
		s.logger.Sugar().Debugw("table dumped", "table", table, "path", outputPath, "rows", len(data.Rows))
	}
	return nil
}

// loadTable reads a whole table as text.
func loadTable(ctx context.Context, db *sql.DB, table string) (*model.Table, error) {
	rs, err := queryResultSet(ctx, db, "SELECT * FROM "+quoteCatalogName(table))
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cell.String()
		}
	}
	return &model.Table{Headers: rs.Columns, Rows: rows}, nil
}

// quoteCatalogName quotes a table name read from sqlite_master, which may contain any character.
func quoteCatalogName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func writeTableFile(outputPath string, data *model.Table, options model.DumpOptions) (err error) {
	file, err := os.Create(outputPath) //nolint:gosec // output location is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	writer, flush, err := model.NewCompressor(options.EffectiveCompression(), file)
	if err != nil {
		return err
	}
	if err := model.WriteTable(writer, data, options.Format); err != nil {
		_ = flush()
		return err
	}
	return flush()
}
