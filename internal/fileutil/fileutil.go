package fileutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMode is the permission applied to data files created by this package.
const DefaultMode os.FileMode = 0o644

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// AppendLines appends each line plus a trailing newline to path, creating the
// file (and its parent directory) when absent.
func AppendLines(path string, lines []string) error {
	return writeLines(path, lines, os.O_CREATE|os.O_WRONLY|os.O_APPEND, DefaultMode)
}

// WriteLines replaces the contents of path with lines, each newline
// terminated. The replace is not atomic: the file is truncated before the
// new content is written.
func WriteLines(path string, lines []string, mode os.FileMode) error {
	return writeLines(path, lines, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
}

func writeLines(path string, lines []string, flag int, mode os.FileMode) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	out, err := os.OpenFile(path, flag, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return out.Close()
}
