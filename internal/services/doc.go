// Package services defines shared utilities consumed by the conversion queue
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     consistent classification into logs, metrics, and job error messages.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability) stays uniform across the queue.
package services
