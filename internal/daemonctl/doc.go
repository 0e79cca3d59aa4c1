// Package daemonctl holds the CLI side of daemon lifecycle management:
// launching a detached daemon, connecting to it, stopping it and building the
// status snapshot shown by "cadence status".
package daemonctl
