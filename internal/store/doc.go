// Package store provides a SQLite-backed archive of committed history
// snapshots.
//
// Each revision records one snapshot of the workspace:
//   - Revisions: the full state as JSON, its state fingerprint and block count
//   - Generated sources: the test source rendered for every suite in the state
//
// # Identity and Ordering
//
// A revision is identified by (session, snapshot_seq). Writing the same pair
// twice is a no-op, so a commit hook can be retried safely. Every query
// orders by revision id, the insertion order; timestamps are never stored.
//
// Fingerprints are computed with block.StateFingerprint, so two revisions
// with equal fingerprints hold the same workspace up to block ids.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
