// Package api defines wire-format types and converters shared by the HTTP API
// and the IPC layer. It translates queue jobs, history rows and host checks
// into transport-friendly DTOs so clients do not depend on internal types.
//
// DTOs use camelCase JSON tags. Enums are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds.
package api
