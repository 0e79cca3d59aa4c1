// Package daemon hosts the long-running conversion queue.
//
// It wires the queue worker, the history recorder, push notifications and
// Prometheus metrics into a single lifecycle with flock-based locking to
// prevent multiple instances. The HTTP API serves the queue snapshot, job
// submission, history and /metrics.
//
// Conversion itself lives in convqueue and transcode; the daemon only owns
// startup, shutdown and the outer surfaces.
package daemon
