// Package logging builds the process-wide slog logger: console and JSON
// handlers with normalized timestamp/level/message keys, shared attribute
// helpers and field-name constants, tee support for mirroring records into
// extra sinks, and a recorder that retains the most recent message for
// startup failure diagnostics.
package logging
