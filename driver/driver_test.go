package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDriver(t *testing.T) {
	t.Parallel()

	require.NotNil(t, NewDriver())
}

func TestDriverOpen(t *testing.T) {
	t.Parallel()

	d := NewDriver()

	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{name: "memory database", dsn: MemoryPath},
		{name: "file database", dsn: filepath.Join(t.TempDir(), "store.db")},
		{name: "missing parent directory", dsn: filepath.Join(t.TempDir(), "missing", "store.db"), wantErr: true},
		{name: "blank path", dsn: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, err := d.Open(tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer conn.Close()

			stmt, err := conn.Prepare("SELECT 1")
			require.NoError(t, err)
			defer stmt.Close()
		})
	}
}

func TestRegisteredDriver(t *testing.T) {
	t.Parallel()

	db, err := sql.Open(DriverName, MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpen_SingleMemoryDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(ctx, MemoryPath, DefaultPragmas())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE t (x TEXT)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO t VALUES ('a')")
	require.NoError(t, err)

	// a second connection would see an empty database
	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM t").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpen_AppliesPragmas(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name        string
		pragmas     Pragmas
		wantTimeout int64
		wantFK      int
	}{
		{name: "defaults", pragmas: DefaultPragmas(), wantTimeout: 5000, wantFK: 1},
		{name: "custom", pragmas: Pragmas{BusyTimeout: 250 * time.Millisecond}, wantTimeout: 250, wantFK: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, err := Open(ctx, MemoryPath, tt.pragmas)
			require.NoError(t, err)
			defer db.Close()

			var timeout int64
			require.NoError(t, db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
			assert.Equal(t, tt.wantTimeout, timeout)

			var fk int
			require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
			assert.Equal(t, tt.wantFK, fk)
		})
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "bad\x00path", DefaultPragmas())
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "no", "such", "dir.db"), DefaultPragmas())
	require.Error(t, err)
}

func TestConnectionTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(ctx, MemoryPath, DefaultPragmas())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE t (x TEXT)")
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO t VALUES ('rolled back')")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO t VALUES (?)")
	require.NoError(t, err)
	_, err = stmt.ExecContext(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, stmt.Close())
	require.NoError(t, tx.Commit())

	var got []string
	rows, err := db.QueryContext(ctx, "SELECT x FROM t")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		got = append(got, s)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"kept"}, got)
}

type bareConn struct{}

func (bareConn) Prepare(string) (driver.Stmt, error) { return nil, nil }
func (bareConn) Close() error                        { return nil }
func (bareConn) Begin() (driver.Tx, error)           { return nil, nil }

func TestConnection_UnsupportedUnderlyingConn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := &Connection{conn: bareConn{}}

	_, err := conn.BeginTx(ctx, driver.TxOptions{})
	require.ErrorIs(t, err, ErrBeginTxNotSupported)

	_, err = conn.PrepareContext(ctx, "SELECT 1")
	require.ErrorIs(t, err, ErrPrepareContextNotSupported)

	_, err = conn.ExecContext(ctx, "SELECT 1", nil)
	require.ErrorIs(t, err, ErrExecContextNotSupported)

	_, err = conn.QueryContext(ctx, "SELECT 1", nil)
	require.ErrorIs(t, err, ErrQueryContextNotSupported)

	require.NoError(t, conn.ResetSession(ctx))
	require.NoError(t, conn.Close())
}

func TestConnectorDSN(t *testing.T) {
	t.Parallel()

	c, err := NewConnector(MemoryPath, DefaultPragmas())
	require.NoError(t, err)
	assert.Equal(t, MemoryPath, c.DSN())
	assert.NotNil(t, c.Driver())
}
