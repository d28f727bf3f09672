// Package logging assembles the slog loggers used by sensorlog.
//
// It owns the console and JSON handlers, level parsing, and output routing.
// A run can mirror its log to a file, which is always written as JSON so it
// can be grepped or shipped regardless of the console format. Context helpers
// tag every line of a run with its run ID.
package logging
