// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// Request and response types reuse the api DTOs so the CLI renders the same
// shapes the HTTP API serves. Dial fails fast when the daemon is offline.
package ipc
