// Package deps reports whether the external binaries cadence shells out to
// are installed.
package deps
