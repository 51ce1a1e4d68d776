package analystdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/driver"
	"go.uber.org/zap"
)

// MemoryPath is the path of a private in-memory store.
const MemoryPath = driver.MemoryPath

// Opener opens the database behind a store path.
// Tests replace it to inject sqlmock connections.
type Opener func(ctx context.Context, path string) (*sql.DB, error)

// Store is the connection registry. It owns at most one database connection
// and serializes every operation on it.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *zap.Logger
	open   Opener

	pragmas     driver.Pragmas
	dumpDir     string
	dumpOptions model.DumpOptions
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOpener replaces how paths are opened.
func WithOpener(open Opener) Option {
	return func(s *Store) {
		if open != nil {
			s.open = open
		}
	}
}

// WithPragmas sets the pragmas applied by the default opener.
func WithPragmas(pragmas driver.Pragmas) Option {
	return func(s *Store) {
		s.pragmas = pragmas
	}
}

// WithDumpOnClose writes every user table to dir when the store is closed.
func WithDumpOnClose(dir string, options model.DumpOptions) Option {
	return func(s *Store) {
		s.dumpDir = dir
		s.dumpOptions = options
	}
}

// New creates a store with no connection.
func New(opts ...Option) *Store {
	s := &Store{
		logger:      zap.NewNop(),
		pragmas:     driver.DefaultPragmas(),
		dumpOptions: model.NewDumpOptions(),
	}
	s.open = func(ctx context.Context, path string) (*sql.DB, error) {
		return driver.Open(ctx, path, s.pragmas)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens path, a file or ":memory:", and makes it the current connection.
// The previous connection is closed only after the new one opened; on failure it stays in place.
func (s *Store) Connect(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connectLocked(ctx, path)
}

// EnsureConnection opens a private in-memory store when nothing is connected.
func (s *Store) EnsureConnection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensureLocked(ctx)
}

// Close closes the current connection, dumping tables first when configured.
// Closing a store with no connection is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	var dumpErr error
	if s.dumpDir != "" {
		dumpErr = s.dumpLocked(context.Background(), s.dumpDir, s.dumpOptions)
	}
	closeErr := s.db.Close()
	s.logger.Sugar().Infow("store closed", "path", s.path)
	s.db = nil
	s.path = ""
	return errors.Join(dumpErr, closeErr)
}

// Path returns the path of the current connection, or "" when not connected.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Connected reports whether a connection exists.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

func (s *Store) connectLocked(ctx context.Context, path string) error {
	db, err := s.open(ctx, path)
	if err != nil {
		s.logger.Sugar().Warnw("connect failed", "path", path, "error", err)
		return NewErrorContext("connect", path).Wrap(ErrConnect, err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Sugar().Warnw("failed to close previous connection", "path", s.path, "error", err)
		}
	}
	s.db = db
	s.path = path
	s.logger.Sugar().Infow("store connected", "path", path)
	return nil
}

func (s *Store) ensureLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	return s.connectLocked(ctx, MemoryPath)
}

// connection returns the current connection or ErrNotConnected.
func (s *Store) connection() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	return s.db, nil
}
