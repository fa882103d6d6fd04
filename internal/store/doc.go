// Package store provides SQLite-backed durable storage for the redline
// batch log.
//
// Every executed batch is recorded once, including batches rejected as
// stale, together with one outcome row per action:
//   - batches: run id, batch hash, fingerprint, final status, seq
//   - outcomes: per-action index, execution order, status, error code
//
// # Ordering
//
// History is ordered by seq, a logical counter assigned inside the write
// transaction. Timestamps are never stored, so two logs of the same
// batches compare equal.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: outcomes must reference a recorded batch
package store
