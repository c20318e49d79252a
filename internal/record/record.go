// Package record defines the record entity shared by every storage
// backend, plus the partial-update merge rules and slug validation.
package record

import (
	"maps"
	"time"
)

// Record is one key-value record. Records handed out by a store are
// detached snapshots: mutating one has no effect on persisted state
// until it is passed back through an update call.
type Record struct {
	// Slug is the caller-supplied unique identifier.
	Slug string `json:"slug"`

	// Data is the string-keyed payload. Values are opaque strings;
	// no nesting, no type coercion.
	Data map[string]string `json:"data"`

	// Version is the revision number, starting at 1. Zero means the
	// record lives in the unversioned store.
	Version int `json:"version,omitempty"`

	// Timestamp is the point in time of the last write.
	Timestamp time.Time `json:"timestamp"`
}

// New creates a record with its own copy of data.
func New(slug string, data map[string]string) Record {
	return Record{Slug: slug, Data: maps.Clone(data)}
}

// Clone returns a deep copy. Stores use this so callers never share a
// data map with persisted state.
func (r Record) Clone() Record {
	r.Data = maps.Clone(r.Data)
	return r
}

// Apply merges changes into the record's data per the Merge rules.
// The record's own map is replaced, not mutated.
func (r *Record) Apply(changes map[string]*string) {
	r.Data = Merge(r.Data, changes)
}
