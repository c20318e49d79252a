package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// Records is the unversioned record store: one live row per slug, no
// history. The simpler sibling of Versioned.
type Records struct {
	db *DB
}

// NewRecords returns an unversioned store over an open database.
func NewRecords(db *DB) *Records {
	return &Records{db: db}
}

// Get returns the record for slug, or NotFound.
func (s *Records) Get(ctx context.Context, slug string) (record.Record, error) {
	var (
		blob      string
		updatedAt int64
	)
	err := s.db.db.QueryRowContext(ctx, `
		SELECT data, updated_at FROM records WHERE slug = ?
	`, slug).Scan(&blob, &updatedAt)
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
		Timestamp: time.Unix(0, updatedAt).UTC(),
	}, nil
}

// Create inserts a new record. Returns AlreadyExists if the slug is
// taken. When rec.Timestamp is zero the store's clock stamps the row.
func (s *Records) Create(ctx context.Context, rec record.Record) error {
	blob, err := encodeData(rec.Data)
	if err != nil {
		return trace.Wrap(err)
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.db.now().UTC()
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO records (slug, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, rec.Slug, blob, ts.UnixNano(), ts.UnixNano())
	if isConstraintErr(err) {
		return trace.AlreadyExists("record %q already exists", rec.Slug)
	}
	if err != nil {
		return trace.Wrap(err, "insert record %q", rec.Slug)
	}

	return nil
}

// Update merges changes into the stored record and writes the result
// back, returning the merged record. Returns NotFound if the slug has
// no row.
func (s *Records) Update(ctx context.Context, slug string, changes map[string]*string) (record.Record, error) {
	rec, err := s.Get(ctx, slug)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	rec.Apply(changes)
	blob, err := encodeData(rec.Data)
	if err != nil {
		return record.Record{}, trace.Wrap(err)
	}

	rec.Timestamp = s.db.now().UTC()
	_, err = s.db.db.ExecContext(ctx, `
		UPDATE records SET data = ?, updated_at = ? WHERE slug = ?
	`, blob, rec.Timestamp.UnixNano(), slug)
	if err != nil {
		return record.Record{}, trace.Wrap(err, "update record %q", slug)
	}

	return rec, nil
}
