package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnnaBNana/timetravel/internal/record"
	"github.com/AnnaBNana/timetravel/internal/testutil"
)

// baseTime is the instant test clocks start at.
var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestDB opens a fresh SQLite database in a temp dir.
func newTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// recordStore is the unversioned capability both backends implement.
type recordStore interface {
	Get(ctx context.Context, slug string) (record.Record, error)
	Create(ctx context.Context, rec record.Record) error
	Update(ctx context.Context, slug string, changes map[string]*string) (record.Record, error)
}

// versionedStore is the versioned capability both backends implement.
type versionedStore interface {
	GetCurrent(ctx context.Context, slug string) (record.Record, error)
	GetVersion(ctx context.Context, slug, selector string) (record.Record, error)
	Create(ctx context.Context, rec record.Record) error
	Update(ctx context.Context, slug string, changes map[string]*string, selector string) (record.Record, error)
	ListVersions(ctx context.Context, slug string) ([]int, error)
}

// forEachRecordStore runs a test against the SQLite and memory
// unversioned backends.
func forEachRecordStore(t *testing.T, run func(t *testing.T, s recordStore, clock *testutil.FixedClock)) {
	t.Run("sqlite", func(t *testing.T) {
		clock := testutil.NewFixedClock(baseTime)
		db := newTestDB(t, WithClock(clock.Now))
		run(t, NewRecords(db), clock)
	})
	t.Run("memory", func(t *testing.T) {
		clock := testutil.NewFixedClock(baseTime)
		run(t, NewMemoryRecords(WithClock(clock.Now)), clock)
	})
}

// forEachVersionedStore runs a test against the SQLite and memory
// versioned backends.
func forEachVersionedStore(t *testing.T, run func(t *testing.T, s versionedStore, clock *testutil.FixedClock)) {
	t.Run("sqlite", func(t *testing.T) {
		clock := testutil.NewFixedClock(baseTime)
		db := newTestDB(t, WithClock(clock.Now))
		run(t, NewVersioned(db), clock)
	})
	t.Run("memory", func(t *testing.T) {
		clock := testutil.NewFixedClock(baseTime)
		run(t, NewMemoryVersioned(WithClock(clock.Now)), clock)
	})
}

func strPtr(s string) *string { return &s }
