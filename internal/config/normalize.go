package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fullDir, err := ResolvePath(c.BaseDir, c.Metadata.FullDatabasePath)
	if err != nil {
		return fmt.Errorf("metadata.full_database_path: %w", err)
	}
	c.FullLogPath = joinFile(fullDir, c.Metadata.FullDatabaseName)

	smallDir, err := ResolvePath(c.BaseDir, c.Metadata.SmallDatabasePath)
	if err != nil {
		return fmt.Errorf("metadata.small_database_path: %w", err)
	}
	c.SnapshotPath = joinFile(smallDir, c.Metadata.SmallDatabaseName)

	c.ArchivePath = ""
	if name := strings.TrimSpace(c.Metadata.ArchiveDatabaseName); name != "" {
		c.ArchivePath = joinFile(fullDir, name)
	}

	if file := strings.TrimSpace(c.Logging.File); file != "" {
		if c.Logging.File, err = ResolvePath(c.BaseDir, file); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// ResolveBaseDir picks the base directory: explicit when given, else the
// SENSORLOG_HOME environment variable, else the working directory.
func ResolveBaseDir(explicit string) (string, error) {
	base := strings.TrimSpace(explicit)
	if base == "" {
		base = strings.TrimSpace(os.Getenv(BaseDirEnv))
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		base = wd
	}
	return ExpandPath(base)
}

// ResolvePath expands pathValue relative to base. Absolute and ~ paths are
// independent of base; an empty value resolves to base itself.
func ResolvePath(base, pathValue string) (string, error) {
	if pathValue == "" {
		return ExpandPath(base)
	}
	if strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) {
		return ExpandPath(pathValue)
	}
	return ExpandPath(filepath.Join(base, pathValue))
}

// ExpandPath expands a leading ~ and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// joinFile places name inside dir unless name is already absolute.
func joinFile(dir, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}
