package config

import (
	"errors"
	"strconv"
)

// MissingFieldError reports a required key absent from the configuration file.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "config: " + e.Field + " is required"
}

// fileConfig mirrors the on-disk layout. Pointers distinguish an absent key
// from a zero value.
type fileConfig struct {
	Metadata *fileMetadata `json:"metadata" toml:"metadata" yaml:"metadata"`
	Logging  *fileLogging  `json:"logging" toml:"logging" yaml:"logging"`
	Servers  *[]fileServer `json:"servers" toml:"servers" yaml:"servers"`
}

type fileMetadata struct {
	FullDatabasePath  *string `json:"full_database_path" toml:"full_database_path" yaml:"full_database_path"`
	FullDatabaseName  *string `json:"full_database_name" toml:"full_database_name" yaml:"full_database_name"`
	SmallDatabasePath *string `json:"small_database_path" toml:"small_database_path" yaml:"small_database_path"`
	SmallDatabaseName *string `json:"small_database_name" toml:"small_database_name" yaml:"small_database_name"`
	NumRowsToCopy     *int    `json:"num_rows_to_copy" toml:"num_rows_to_copy" yaml:"num_rows_to_copy"`

	RequestTimeoutSeconds *int    `json:"request_timeout_seconds" toml:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	ChunkSize             *int    `json:"chunk_size" toml:"chunk_size" yaml:"chunk_size"`
	LockTimeoutSeconds    *int    `json:"lock_timeout_seconds" toml:"lock_timeout_seconds" yaml:"lock_timeout_seconds"`
	ArchiveDatabaseName   *string `json:"archive_database_name" toml:"archive_database_name" yaml:"archive_database_name"`
}

type fileLogging struct {
	Level  *string `json:"level" toml:"level" yaml:"level"`
	Format *string `json:"format" toml:"format" yaml:"format"`
	File   *string `json:"file" toml:"file" yaml:"file"`
}

type fileServer struct {
	Name    *string   `json:"name" toml:"name" yaml:"name"`
	Address *string   `json:"address" toml:"address" yaml:"address"`
	Signals *[]string `json:"signals" toml:"signals" yaml:"signals"`
}

// apply copies decoded values over the defaults in cfg and reports every
// missing required key.
func (f *fileConfig) apply(cfg *Config) error {
	var missing []error
	need := func(present bool, field string) bool {
		if !present {
			missing = append(missing, &MissingFieldError{Field: field})
		}
		return present
	}

	if need(f.Metadata != nil, "metadata") {
		m := f.Metadata
		if need(m.FullDatabasePath != nil, "metadata.full_database_path") {
			cfg.Metadata.FullDatabasePath = *m.FullDatabasePath
		}
		if need(m.FullDatabaseName != nil, "metadata.full_database_name") {
			cfg.Metadata.FullDatabaseName = *m.FullDatabaseName
		}
		if need(m.SmallDatabasePath != nil, "metadata.small_database_path") {
			cfg.Metadata.SmallDatabasePath = *m.SmallDatabasePath
		}
		if need(m.SmallDatabaseName != nil, "metadata.small_database_name") {
			cfg.Metadata.SmallDatabaseName = *m.SmallDatabaseName
		}
		if need(m.NumRowsToCopy != nil, "metadata.num_rows_to_copy") {
			cfg.Metadata.NumRowsToCopy = *m.NumRowsToCopy
		}
		setInt(&cfg.Metadata.RequestTimeoutSeconds, m.RequestTimeoutSeconds)
		setInt(&cfg.Metadata.ChunkSize, m.ChunkSize)
		setInt(&cfg.Metadata.LockTimeoutSeconds, m.LockTimeoutSeconds)
		setString(&cfg.Metadata.ArchiveDatabaseName, m.ArchiveDatabaseName)
	}

	if f.Logging != nil {
		setString(&cfg.Logging.Level, f.Logging.Level)
		setString(&cfg.Logging.Format, f.Logging.Format)
		setString(&cfg.Logging.File, f.Logging.File)
	}

	if need(f.Servers != nil, "servers") {
		cfg.Servers = make([]Server, 0, len(*f.Servers))
		for i, s := range *f.Servers {
			prefix := "servers[" + strconv.Itoa(i) + "]."
			var server Server
			if need(s.Name != nil, prefix+"name") {
				server.Name = *s.Name
			}
			if need(s.Address != nil, prefix+"address") {
				server.Address = *s.Address
			}
			if need(s.Signals != nil, prefix+"signals") {
				server.Signals = append([]string(nil), (*s.Signals)...)
			}
			cfg.Servers = append(cfg.Servers, server)
		}
	}

	return errors.Join(missing...)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
