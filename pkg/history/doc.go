// Package history records an audit trail of pruned filesystem entries.
//
// Every successful physical deletion performed by a retention engine is
// appended as a Record. The Store interface has two implementations: a
// thread-safe in-memory store for tests and non-persistent deployments, and
// a SQLite-backed store for durable single-instance deployments. The SQLite
// store uses WAL journaling with periodic passive checkpoints.
//
// The trail itself is subject to retention: Cleanup drops records older
// than a cutoff, and the daemon runs it alongside the scheduled servicing
// so the audit database does not grow without bound.
package history
