package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DriverName is the name this driver registers under with database/sql.
const DriverName = "analystdb"

func init() {
	sql.Register(DriverName, NewDriver())
}

// Pragmas are applied to every new physical connection.
type Pragmas struct {
	// BusyTimeout sets how long SQLite waits on a locked database. Zero leaves the default.
	BusyTimeout time.Duration
	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool
}

// DefaultPragmas returns the pragmas used when nothing is configured.
func DefaultPragmas() Pragmas {
	return Pragmas{
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
	}
}

// statements renders the pragmas as SQL.
func (p Pragmas) statements() []string {
	var stmts []string
	if p.BusyTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout = %d", p.BusyTimeout.Milliseconds()))
	}
	if p.ForeignKeys {
		stmts = append(stmts, "PRAGMA foreign_keys = ON")
	} else {
		stmts = append(stmts, "PRAGMA foreign_keys = OFF")
	}
	return stmts
}

// Driver implements database/sql/driver.Driver interface.
// The DSN is a SQLite path or ":memory:".
type Driver struct{}

// Connector implements database/sql/driver.Connector interface.
// It holds connection parameters and manages the creation of database connections.
type Connector struct {
	driver  *Driver
	dsn     string
	pragmas Pragmas
}

// Connection implements database/sql/driver.Conn interface.
// It wraps an underlying SQLite connection.
type Connection struct {
	conn driver.Conn
}

// Transaction implements database/sql/driver.Tx interface.
// It wraps an underlying SQLite transaction for atomic operations.
type Transaction struct {
	tx driver.Tx
}

// NewDriver creates a new driver
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	return NewConnector(dsn, DefaultPragmas())
}

// NewConnector validates dsn and returns a connector applying pragmas to each connection.
func NewConnector(dsn string, pragmas Pragmas) (*Connector, error) {
	if err := ValidateDSN(dsn); err != nil {
		return nil, err
	}
	return &Connector{
		driver:  NewDriver(),
		dsn:     dsn,
		pragmas: pragmas,
	}, nil
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", c.dsn, err)
	}

	wrapped := &Connection{conn: conn}
	for _, stmt := range c.pragmas.statements() {
		if _, err := wrapped.ExecContext(ctx, stmt, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}
	return wrapped, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// DSN returns the path the connector opens.
func (c *Connector) DSN() string {
	return c.dsn
}

// Open opens dsn on a single pinned connection and pings it.
// One connection keeps ":memory:" a single database.
func Open(ctx context.Context, dsn string, pragmas Pragmas) (*sql.DB, error) {
	connector, err := NewConnector(dsn, pragmas)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface (deprecated, use BeginTx instead)
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx interface
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		tx, err := connBeginTx.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Transaction{tx: tx}, nil
	}
	return nil, ErrBeginTxNotSupported
}

// Commit implements driver.Tx interface
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback implements driver.Tx interface
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}

// ExecContext implements driver.ExecerContext interface
func (conn *Connection) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if execer, ok := conn.conn.(driver.ExecerContext); ok {
		return execer.ExecContext(ctx, query, args)
	}
	return nil, ErrExecContextNotSupported
}

// QueryContext implements driver.QueryerContext interface
func (conn *Connection) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if queryer, ok := conn.conn.(driver.QueryerContext); ok {
		return queryer.QueryContext(ctx, query, args)
	}
	return nil, ErrQueryContextNotSupported
}

// ResetSession implements driver.SessionResetter interface
func (conn *Connection) ResetSession(ctx context.Context) error {
	if resetter, ok := conn.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}
