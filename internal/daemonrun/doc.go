// Package daemonrun is the process entry point for "cadence daemon": it sets
// up logging, builds the queue from configuration and serves it until a
// signal or an IPC stop request arrives.
package daemonrun
