package analystdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/driver"
)

// Register creates the session table name with one TEXT column per entry of
// cols, unless it already exists, and appends rows to it.
//
// Names are sanitized independently, so two columns may collapse onto the
// same identifier; SQLite then rejects the table. All rows are inserted in
// one transaction: a row whose length differs from len(cols) rolls the whole
// batch back. The table itself is created outside that transaction and
// survives a failed batch. A private in-memory store is connected when
// nothing is connected yet.
func (s *Store) Register(ctx context.Context, name string, cols []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(ctx); err != nil {
		return err
	}

	table := model.Sanitize(name)
	columns := model.SanitizeAll(cols)
	errCtx := NewErrorContext("ingest", "").WithTable(table)

	if len(columns) == 0 {
		return errCtx.WithDetails("no columns").Error(ErrIngest)
	}
	if err := driver.ValidateColumnCount(len(columns)); err != nil {
		return errCtx.Wrap(ErrIngest, err)
	}

	if _, err := s.db.ExecContext(ctx, buildCreateTableQuery(table, columns)); err != nil {
		return errCtx.Wrap(ErrIngest, err)
	}

	if len(rows) == 0 {
		s.logger.Sugar().Debugw("session table registered", "table", table, "rows", 0)
		return nil
	}

	if err := insertRows(ctx, s.db, table, columns, rows); err != nil {
		return errCtx.Wrap(ErrIngest, err)
	}
	s.logger.Sugar().Debugw("session table registered", "table", table, "rows", len(rows))
	return nil
}

// insertRows runs one prepared INSERT per row inside a single transaction.
func insertRows(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, buildInsertQuery(table, columns))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrRowArity, i, len(row), len(columns))
		}
		for j, v := range row {
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// buildCreateTableQuery declares every column TEXT.
func buildCreateTableQuery(table string, columns []string) string {
	columnDefs := make([]string, len(columns))
	for i, col := range columns {
		columnDefs[i] = model.QuoteIdentifier(col) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		model.QuoteIdentifier(table), strings.Join(columnDefs, ", "))
}

func buildInsertQuery(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = model.QuoteIdentifier(col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		model.QuoteIdentifier(table), strings.Join(quoted, ", "), buildPlaceholders(len(columns)))
}

func buildPlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
