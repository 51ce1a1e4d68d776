package analystdb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nao1215/analystdb/driver"
)

// StatementKind tells whether a statement returns rows or an affected count.
type StatementKind int

const (
	// ReadStatement returns a result set
	ReadStatement StatementKind = iota
	// WriteStatement returns the number of affected rows
	WriteStatement
)

// String returns "read" or "write"
func (k StatementKind) String() string {
	if k == ReadStatement {
		return "read"
	}
	return "write"
}

// Classify looks only at the leading keyword: SELECT and WITH are reads,
// anything else is a write.
func Classify(sqlText string) StatementKind {
	lower := strings.ToLower(strings.TrimLeft(sqlText, " \t\r\n\f\v"))
	if strings.HasPrefix(lower, "select") || strings.HasPrefix(lower, "with") {
		return ReadStatement
	}
	return WriteStatement
}

// ResultSet is the materialized output of a read statement.
// Every row has exactly len(Columns) cells in column order.
type ResultSet struct {
	Columns []string `json:"cols"`
	Rows    [][]Cell `json:"rows"`
}

// WriteResult is the output of a write statement.
type WriteResult struct {
	Affected int64 `json:"affected"`
}

// Outcome is either a ResultSet or a WriteResult, depending on Kind.
type Outcome struct {
	Kind      StatementKind
	ResultSet *ResultSet
	Write     *WriteResult
}

// MarshalJSON encodes {cols, rows} for reads and {affected} for writes.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Kind == ReadStatement {
		rs := o.ResultSet
		if rs == nil {
			rs = &ResultSet{}
		}
		if rs.Columns == nil || rs.Rows == nil {
			rs = &ResultSet{Columns: nonNil(rs.Columns), Rows: nonNilRows(rs.Rows)}
		}
		return json.Marshal(rs)
	}
	w := o.Write
	if w == nil {
		w = &WriteResult{}
	}
	return json.Marshal(w)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(r [][]Cell) [][]Cell {
	if r == nil {
		return [][]Cell{}
	}
	return r
}

// Execute runs one SQL statement on the current connection.
// Reads are fully materialized before the lock is released. Any failure
// returns ErrExec with the engine's message and no partial result.
func (s *Store) Execute(ctx context.Context, sqlText string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.connection()
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	kind := Classify(sqlText)
	sugar := s.logger.Sugar().With("kind", kind.String(), "sql", driver.TrimForLog(sqlText))

	if kind == WriteStatement {
		affected, err := execWrite(ctx, db, sqlText)
		if err != nil {
			sugar.Debugw("statement failed", "error", err)
			return Outcome{}, NewErrorContext("exec", "").Wrap(ErrExec, err)
		}
		sugar.Debugw("statement executed", "affected", affected, "elapsed", time.Since(start))
		return Outcome{Kind: WriteStatement, Write: &WriteResult{Affected: affected}}, nil
	}

	rs, err := queryResultSet(ctx, db, sqlText)
	if err != nil {
		sugar.Debugw("query failed", "error", err)
		return Outcome{}, NewErrorContext("query", "").Wrap(ErrExec, err)
	}
	sugar.Debugw("query executed", "rows", len(rs.Rows), "elapsed", time.Since(start))
	return Outcome{Kind: ReadStatement, ResultSet: rs}, nil
}

// totalChangesQuery counts every row changed on the connection since it opened.
const totalChangesQuery = "SELECT total_changes()"

// execWrite runs sqlText on a pinned connection and returns the rows it changed.
// SQLite keeps the last DML count across DDL and pragmas, so the driver's
// RowsAffected is trusted only when total_changes() moved.
func execWrite(ctx context.Context, db *sql.DB, sqlText string) (int64, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	before, err := totalChanges(ctx, conn)
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	after, err := totalChanges(ctx, conn)
	if err != nil {
		return 0, err
	}
	if after == before {
		return 0, nil
	}
	return res.RowsAffected()
}

func totalChanges(ctx context.Context, conn *sql.Conn) (int64, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, totalChangesQuery).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// queryResultSet prepares sqlText, captures the column names in engine order
// and converts every row into cells.
func queryResultSet(ctx context.Context, db *sql.DB, sqlText string) (*ResultSet, error) {
	stmt, err := db.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: nonNil(columns), Rows: [][]Cell{}}
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		row := make([]Cell, len(columns))
		for i, v := range values {
			row[i] = CellFromValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
