package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/gravitational/trace"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the SQLite handle shared by both record stores.
// Uses WAL mode for concurrent read access.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a store backend.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock overrides the wall clock used to stamp writes.
// Tests use this with testutil.FixedClock for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func applyOptions(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Idempotent - safe to call multiple times against the same path.
func Open(path string, opts ...Option) (*DB, error) {
	set := applyOptions(opts)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, trace.Wrap(err, "open database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, trace.Wrap(err, "connect to database")
	}

	// SQLite supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, trace.Wrap(err, "apply pragmas")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, trace.Wrap(err, "apply schema")
	}

	return &DB{db: db, now: set.now}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return trace.Wrap(err, "execute %q", pragma)
		}
	}

	return nil
}

// isConstraintErr reports whether err is a SQLite uniqueness
// violation. Create paths translate these to AlreadyExists.
func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
