// Package history keeps an SQLite log of finished conversions.
//
// The queue itself is never persisted; this is an audit trail written by a
// Recorder subscribed to the queue and read back by `cadence history`.
package history
