// Package store provides SQLite-backed durable storage for task records.
//
// The store owns every task row. Nothing is cached between calls: each
// operation runs its own statement against the database and releases it
// before returning (cursors are released by Close).
//
// # Connection Pools
//
// Two pools share one database file:
//   - writer: a single connection, so SQLite sees exactly one writer and
//     concurrent writes queue in database/sql instead of failing SQLITE_BUSY
//   - reader: several read-only connections; under WAL they read a
//     consistent snapshot while the writer commits
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The database must be a file; an in-memory database would give each pool
// its own private copy.
package store
