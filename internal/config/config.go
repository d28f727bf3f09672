package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.json
var sampleConfig string

// Metadata contains file locations and run tuning.
type Metadata struct {
	FullDatabasePath  string
	FullDatabaseName  string
	SmallDatabasePath string
	SmallDatabaseName string
	NumRowsToCopy     int

	RequestTimeoutSeconds int
	ChunkSize             int
	LockTimeoutSeconds    int
	// ArchiveDatabaseName enables the SQLite mirror when set. It lives next
	// to the full log.
	ArchiveDatabaseName string
}

// Server describes one polled sensor endpoint.
type Server struct {
	Name    string
	Address string
	Signals []string
}

// Logging contains configuration for diagnostic output.
type Logging struct {
	Level  string
	Format string
	File   string
}

// Config encapsulates one loaded configuration file.
//
// The resolved fields are absolute paths filled in by Load:
//   - FullLogPath: full_database_path joined with full_database_name
//   - SnapshotPath: small_database_path joined with small_database_name
//   - ArchivePath: archive_database_name next to the full log, or empty
type Config struct {
	Metadata Metadata
	Logging  Logging
	Servers  []Server

	BaseDir      string
	SourcePath   string
	FullLogPath  string
	SnapshotPath string
	ArchivePath  string
}

// Load reads the configuration at path, resolving it and every configured
// path against baseDir, then validates the result.
func Load(path, baseDir string) (*Config, error) {
	base, err := ResolveBaseDir(baseDir)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolvePath(base, path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	var raw fileConfig
	if err := decode(resolved, data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	cfg := Default()
	if err := raw.apply(&cfg); err != nil {
		return nil, err
	}
	cfg.BaseDir = base
	cfg.SourcePath = resolved

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, into *fileConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, into)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, into)
	default:
		return json.Unmarshal(jsonc.ToJSON(data), into)
	}
}

// RequestTimeout returns the per-signal HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Metadata.RequestTimeoutSeconds) * time.Second
}

// LockTimeout returns how long a run waits for another run to finish.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Metadata.LockTimeoutSeconds) * time.Second
}

// SignalsFor returns the configured signals of the named server.
func (c *Config) SignalsFor(name string) ([]string, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s.Signals, true
		}
	}
	return nil, false
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
