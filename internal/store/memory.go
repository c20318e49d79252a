package store

import (
	"context"
	"maps"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// MemoryRecords is the in-process unversioned store used for tests and
// demos. State is guarded by a mutex and records are cloned on the way
// in and out, so callers never share maps with the ledger.
type MemoryRecords struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]record.Record
}

// NewMemoryRecords returns an empty in-memory unversioned store.
func NewMemoryRecords(opts ...Option) *MemoryRecords {
	set := applyOptions(opts)
	return &MemoryRecords{
		now:     set.now,
		records: make(map[string]record.Record),
	}
}

// Get returns the record for slug, or NotFound.
func (s *MemoryRecords) Get(_ context.Context, slug string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[slug]
	if !ok {
		return record.Record{}, trace.NotFound("record %q not found", slug)
	}
	return rec.Clone(), nil
}

// Create inserts a new record, or returns AlreadyExists.
func (s *MemoryRecords) Create(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Slug]; ok {
		return trace.AlreadyExists("record %q already exists", rec.Slug)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	s.records[rec.Slug] = rec.Clone()
	return nil
}

// Update merges changes into the stored record and returns the result.
func (s *MemoryRecords) Update(_ context.Context, slug string, changes map[string]*string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[slug]
	if !ok {
		return record.Record{}, trace.NotFound("record %q not found", slug)
	}

	rec = rec.Clone()
	rec.Apply(changes)
	rec.Timestamp = s.now().UTC()
	s.records[slug] = rec

	return rec.Clone(), nil
}

// MemoryVersioned is the in-process versioned store. Same contract as
// Versioned, backed by maps instead of SQLite.
type MemoryVersioned struct {
	mu      sync.Mutex
	now     func() time.Time
	current map[string]record.Record
	history map[string][]record.Record
}

// NewMemoryVersioned returns an empty in-memory versioned store.
func NewMemoryVersioned(opts ...Option) *MemoryVersioned {
	set := applyOptions(opts)
	return &MemoryVersioned{
		now:     set.now,
		current: make(map[string]record.Record),
		history: make(map[string][]record.Record),
	}
}

// GetCurrent returns the current row for slug, or NotFound.
func (s *MemoryVersioned) GetCurrent(_ context.Context, slug string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCurrentLocked(slug)
}

func (s *MemoryVersioned) getCurrentLocked(slug string) (record.Record, error) {
	rec, ok := s.current[slug]
	if !ok {
		return record.Record{}, trace.NotFound("record %q not found", slug)
	}
	return rec.Clone(), nil
}

// GetVersion returns the record at the given version selector, current
// row checked before history.
func (s *MemoryVersioned) GetVersion(_ context.Context, slug, selector string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getVersionLocked(slug, selector)
}

func (s *MemoryVersioned) getVersionLocked(slug, selector string) (record.Record, error) {
	if selector == record.VersionLatest {
		return s.getCurrentLocked(slug)
	}

	version, err := strconv.Atoi(selector)
	if err != nil || version < 1 {
		return record.Record{}, trace.NotFound("record %q has no version %q", slug, selector)
	}

	if rec, ok := s.current[slug]; ok && rec.Version == version {
		return rec.Clone(), nil
	}
	for _, rec := range s.history[slug] {
		if rec.Version == version {
			return rec.Clone(), nil
		}
	}
	return record.Record{}, trace.NotFound("record %q has no version %d", slug, version)
}

// Create inserts the first version of a record, or returns
// AlreadyExists.
func (s *MemoryVersioned) Create(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current[rec.Slug]; ok {
		return trace.AlreadyExists("record %q already exists", rec.Slug)
	}
	rec = rec.Clone()
	rec.Version = 1
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	s.current[rec.Slug] = rec
	return nil
}

// Update merges changes into the record at selector, archives the
// pre-merge snapshot, and advances the version. Identical merge
// results are a no-op with no archive and no version bump.
func (s *MemoryVersioned) Update(_ context.Context, slug string, changes map[string]*string, selector string) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getVersionLocked(slug, selector)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	merged := record.Merge(rec.Data, changes)
	if maps.Equal(merged, rec.Data) {
		return rec, nil
	}

	if !s.archived(slug, rec.Version) {
		s.history[slug] = append(s.history[slug], rec.Clone())
	}

	next := record.Record{
		Slug:      slug,
		Data:      merged,
		Version:   rec.Version + 1,
		Timestamp: s.now().UTC(),
	}
	s.current[slug] = next.Clone()
	return next, nil
}

func (s *MemoryVersioned) archived(slug string, version int) bool {
	for _, rec := range s.history[slug] {
		if rec.Version == version {
			return true
		}
	}
	return false
}

// ListVersions returns every version ever assigned to slug, ascending.
func (s *MemoryVersioned) ListVersions(_ context.Context, slug string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current[slug]
	if !ok {
		return nil, trace.NotFound("record %q not found", slug)
	}

	seen := map[int]bool{cur.Version: true}
	for _, rec := range s.history[slug] {
		seen[rec.Version] = true
	}
	versions := make([]int, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}
