// Package notifications sends ntfy push messages about conversion runs.
//
// NewService returns a no-op implementation when no topic is configured.
// QueueNotifier subscribes to the queue and reports run start, run summary
// and individual failures.
package notifications
