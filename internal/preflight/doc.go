// Package preflight provides readiness checks for the directories and
// external binaries cadence depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "cadence status" command renders each result in a table.
package preflight
