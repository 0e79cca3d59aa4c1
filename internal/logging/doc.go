// Package logging builds the slog loggers used by cadence.
//
// A console handler renders one readable line per record with the component
// and short job id up front; a JSON handler serves log shipping. Helpers tag
// loggers with components and context-derived job ids, and enforce the
// event_type/error_hint shape on warnings and errors.
package logging
