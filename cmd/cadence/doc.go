// Package main hosts the cadence CLI entrypoint and command graph.
//
// Commands either convert files in-process (convert) or talk to the daemon
// over its Unix socket (add, queue, history, status, stop, test-notify).
// Configuration is resolved once per invocation and shared by every
// subcommand through commandContext.
package main
