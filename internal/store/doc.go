// Package store provides a SQLite-backed journal of backend traffic.
//
// A journal is a list of sessions. Each session is an append-only log of
// entries: the commands a backend applied and the replies it sent, in the
// order it applied and sent them.
//
// # Critical Patterns
//
// Logical ordering:
//   - Entries are stamped with seq from a per-session Clock, NEVER timestamps
//   - Replaying a scenario produces the same seq values
//
// Deterministic query results:
//   - Entry queries use ORDER BY seq ASC
//   - Session queries use ORDER BY id ASC COLLATE BINARY; session IDs are
//     UUIDv7, so this is creation order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
