package store

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"strconv"
	"time"

	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// Versioned is the revision-history record store. For each slug there
// is exactly one current row holding the highest version; every
// superseded state lives as an append-only row in the history table.
// Version numbers form a contiguous sequence starting at 1.
//
// Every operation opens its own scoped statement or transaction;
// nothing outlives the call frame. Concurrent updaters to the same
// slug race read-modify-write: last writer wins.
type Versioned struct {
	db *DB
}

// NewVersioned returns a versioned store over an open database.
func NewVersioned(db *DB) *Versioned {
	return &Versioned{db: db}
}

// GetCurrent returns the current row for slug, or NotFound.
func (s *Versioned) GetCurrent(ctx context.Context, slug string) (record.Record, error) {
	var (
		blob      string
		version   int
		createdAt int64
	)
	err := s.db.db.QueryRowContext(ctx, `
		SELECT data, version, created_at FROM versioned_records WHERE slug = ?
	`, slug).Scan(&blob, &version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, trace.NotFound("record %q not found", slug)
	}
	if err != nil {
		return record.Record{}, trace.Wrap(err, "query record %q", slug)
	}

	data, err := decodeData(blob)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	return record.Record{
		Slug:      slug,
		Data:      data,
		Version:   version,
		Timestamp: time.Unix(0, createdAt).UTC(),
	}, nil
}

// GetVersion returns the record at the given version selector. The
// selector is either record.VersionLatest or a decimal version number;
// the current row is checked before the history log. A selector that
// matches neither yields NotFound.
func (s *Versioned) GetVersion(ctx context.Context, slug, selector string) (record.Record, error) {
	if selector == record.VersionLatest {
		return s.GetCurrent(ctx, slug)
	}

	version, err := strconv.Atoi(selector)
	if err != nil || version < 1 {
		return record.Record{}, trace.NotFound("record %q has no version %q", slug, selector)
	}

	rec, err := s.GetCurrent(ctx, slug)
	if err == nil && rec.Version == version {
		return rec, nil
	}
	if err != nil && !trace.IsNotFound(err) {
		return record.Record{}, trace.Wrap(err)
	}

	return s.getHistorical(ctx, slug, version)
}

// getHistorical reads one archived snapshot from the history log.
func (s *Versioned) getHistorical(ctx context.Context, slug string, version int) (record.Record, error) {
	var (
		blob      string
		timestamp int64
	)
	err := s.db.db.QueryRowContext(ctx, `
		SELECT data, timestamp FROM history
		WHERE records_slug = ? AND version = ?
	`, slug, version).Scan(&blob, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, trace.NotFound("record %q has no version %d", slug, version)
	}
	if err != nil {
		return record.Record{}, trace.Wrap(err, "query history for %q", slug)
	}

	data, err := decodeData(blob)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	return record.Record{
		Slug:      slug,
		Data:      data,
		Version:   version,
		Timestamp: time.Unix(0, timestamp).UTC(),
	}, nil
}

// Create inserts the first version of a record. The slug's primary key
// turns a duplicate create into AlreadyExists, so the non-atomic
// get-then-create branch in the API layer cannot produce two current
// rows. When rec.Timestamp is zero the store's clock stamps the row.
func (s *Versioned) Create(ctx context.Context, rec record.Record) error {
	blob, err := encodeData(rec.Data)
	if err != nil {
		return trace.Wrap(err)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.db.now().UTC()
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO versioned_records (slug, data, version, created_at)
		VALUES (?, ?, 1, ?)
	`, rec.Slug, blob, ts.UnixNano())
	if isConstraintErr(err) {
		return trace.AlreadyExists("record %q already exists", rec.Slug)
	}
	if err != nil {
		return trace.Wrap(err, "insert record %q", rec.Slug)
	}

	return nil
}

// Update reads the record at selector (record.VersionLatest for the
// current row), merges changes into it, and advances the slug by one
// version. The pre-merge snapshot - data, version, and timestamp
// exactly as read - is archived to history, then the current row is
// overwritten with the merged data, version+1, and a fresh timestamp,
// both inside one transaction.
//
// A merge whose result equals the data as read is a no-op: nothing is
// written and the record is returned unchanged.
func (s *Versioned) Update(ctx context.Context, slug string, changes map[string]*string, selector string) (record.Record, error) {
	rec, err := s.GetVersion(ctx, slug, selector)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	merged := record.Merge(rec.Data, changes)
	if maps.Equal(merged, rec.Data) {
		return rec, nil
	}

	oldBlob, err := encodeData(rec.Data)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}
	newBlob, err := encodeData(merged)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}
	now := s.db.now().UTC()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Record{}, trace.Wrap(err, "begin update for %q", slug)
	}
	defer tx.Rollback() // No-op if committed

	// ON CONFLICT DO NOTHING covers updates addressed at a historical
	// version: the snapshot being archived is already in history,
	// byte-identical, and historical rows are never overwritten.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (records_slug, version, timestamp, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(records_slug, version) DO NOTHING
	`, rec.Slug, rec.Version, rec.Timestamp.UnixNano(), oldBlob)
	if err != nil {
		return record.Record{}, trace.Wrap(err, "archive version %d of %q", rec.Version, slug)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE versioned_records SET data = ?, version = ?, created_at = ?
		WHERE slug = ?
	`, newBlob, rec.Version+1, now.UnixNano(), slug)
	if err != nil {
		return record.Record{}, trace.Wrap(err, "update record %q", slug)
	}

	if err := tx.Commit(); err != nil {
		return record.Record{}, trace.Wrap(err, "commit update for %q", slug)
	}

	return record.Record{
		Slug:      slug,
		Data:      merged,
		Version:   rec.Version + 1,
		Timestamp: now,
	}, nil
}

// ListVersions returns every version number ever assigned to slug -
// all historical versions plus the current one - in ascending order.
// Returns NotFound if the slug has no current row.
func (s *Versioned) ListVersions(ctx context.Context, slug string) ([]int, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT version FROM history WHERE records_slug = ?
		UNION
		SELECT version FROM versioned_records WHERE slug = ?
		ORDER BY version ASC
	`, slug, slug)
	if err != nil {
		return nil, trace.Wrap(err, "query versions for %q", slug)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, trace.Wrap(err, "scan version for %q", slug)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, trace.Wrap(err, "iterate versions for %q", slug)
	}

	if len(versions) == 0 {
		return nil, trace.NotFound("record %q not found", slug)
	}

	return versions, nil
}
