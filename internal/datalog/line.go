package datalog

import "strings"

const fieldSeparator = ","

// Row is anything that can be serialized as one log line.
type Row interface {
	Values() []string
}

// FormatLine joins values into a single log line without the trailing newline.
// Values are not escaped.
func FormatLine(values []string) string {
	return strings.Join(values, fieldSeparator)
}

// ParseLine splits a log line back into its values. It is the inverse of
// FormatLine only when no value contains the separator.
func ParseLine(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, fieldSeparator)
}
