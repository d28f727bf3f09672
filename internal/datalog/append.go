package datalog

import (
	"fmt"

	"sensorlog/internal/fileutil"
)

// Append writes one line per row to the log at path, creating it when absent.
func Append[R Row](path string, rows []R) error {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, FormatLine(row.Values()))
	}
	if err := fileutil.AppendLines(path, lines); err != nil {
		return fmt.Errorf("append log %s: %w", path, err)
	}
	return nil
}
