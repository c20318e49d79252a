// Package store provides the storage backends for the record service.
//
// Two capability variants exist, each with a SQLite and an in-memory
// implementation:
//
//   - Records / MemoryRecords: plain CRUD keyed by slug, no history.
//   - Versioned / MemoryVersioned: every non-no-op update archives the
//     prior state into an append-only history log and advances a
//     contiguous version counter starting at 1.
//
// The SQLite schema holds three tables: records (unversioned current
// rows), versioned_records (versioned current rows), and history
// (append-only snapshots). The data column is an opaque JSON blob that
// round-trips a string-to-string map exactly.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single-connection pool: SQLite allows one writer at a time
//
// Stores are request-per-call: each operation opens a scoped statement
// or transaction and releases it on every exit path. There is no
// application-level locking across calls; two concurrent updates to
// the same slug interleave as read-modify-write races and the last
// writer wins.
package store
