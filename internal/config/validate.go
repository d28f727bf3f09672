package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateServers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if strings.TrimSpace(c.Metadata.FullDatabaseName) == "" {
		return errors.New("metadata.full_database_name must not be empty")
	}
	if strings.TrimSpace(c.Metadata.SmallDatabaseName) == "" {
		return errors.New("metadata.small_database_name must not be empty")
	}
	if c.Metadata.NumRowsToCopy < 0 {
		return fmt.Errorf("metadata.num_rows_to_copy must not be negative, got %d", c.Metadata.NumRowsToCopy)
	}
	if err := ensurePositiveMap(map[string]int{
		"metadata.request_timeout_seconds": c.Metadata.RequestTimeoutSeconds,
		"metadata.chunk_size":              c.Metadata.ChunkSize,
		"metadata.lock_timeout_seconds":    c.Metadata.LockTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.FullLogPath != "" && c.FullLogPath == c.SnapshotPath {
		return fmt.Errorf("snapshot path must differ from the full log path (%s)", c.FullLogPath)
	}
	if c.ArchivePath != "" && (c.ArchivePath == c.FullLogPath || c.ArchivePath == c.SnapshotPath) {
		return fmt.Errorf("metadata.archive_database_name must not reuse the log or snapshot file (%s)", c.ArchivePath)
	}
	return nil
}

func (c *Config) validateServers() error {
	for i, s := range c.Servers {
		if strings.TrimSpace(s.Address) == "" {
			return fmt.Errorf("servers[%d].address must not be empty", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := CheckLogFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	if err := CheckLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// CheckLogFormat reports whether format is one of console or json. The value
// must already be normalized.
func CheckLogFormat(format string) error {
	switch format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("unsupported value %q (want console or json)", format)
	}
}

// CheckLogLevel reports whether level is one of debug, info, warn or error.
// The value must already be normalized.
func CheckLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unsupported value %q (want debug, info, warn or error)", level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if values[k] <= 0 {
			return fmt.Errorf("%s must be positive", k)
		}
	}
	return nil
}
