package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tacogips/frecency/internal/engine"
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the frecency SQLite database.
type DB struct {
	*sql.DB
	Path string

	maxVisitLogSize int
	logger          *slog.Logger
}

type options struct {
	maxVisitLogSize int
	logger          *slog.Logger
}

// Option customises Open.
type Option func(*options)

// WithMaxVisitLogSize caps how many visits are kept per path. Default: 20.
func WithMaxVisitLogSize(n int) Option {
	return func(o *options) { o.maxVisitLogSize = n }
}

// WithLogger sets the logger used for debug output. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens (or creates) the SQLite database at path and configures pragmas.
// It does not create the tables; see CreateTables and WithSchema.
// The parent directory must already exist.
func Open(path string, opts ...Option) (*DB, error) {
	o := options{
		maxVisitLogSize: engine.DefaultMaxVisitLogSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxVisitLogSize <= 0 {
		return nil, fmt.Errorf("%w: max visit log size must be positive, got %d", ErrConfiguration, o.maxVisitLogSize)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, wrapErr("open sqlite", err)
	}
	// Single writer. Also keeps ":memory:" on one database.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{
		DB:              sqlDB,
		Path:            path,
		maxVisitLogSize: o.maxVisitLogSize,
		logger:          o.logger,
	}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// dsn builds a file: URI for path so that characters such as '?' or '#'
// stay part of the file name. _txlock=immediate makes every Begin a
// BEGIN IMMEDIATE, so the read at the start of RecordVisit already holds
// the write lock.
func dsn(path string) string {
	u := &url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: "_txlock=immediate",
	}
	return u.String()
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory(opts ...Option) (*DB, error) {
	return Open(":memory:", opts...)
}

// MaxVisitLogSize returns the per-path visit log bound.
func (db *DB) MaxVisitLogSize() int {
	return db.maxVisitLogSize
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return wrapErr(fmt.Sprintf("pragma %q", p), err)
		}
	}
	return nil
}
