package config

const (
	defaultRequestTimeoutSeconds = 10
	defaultChunkSize             = 8192
	defaultLockTimeoutSeconds    = 30

	// DefaultLogFormat and DefaultLogLevel apply when the logging section
	// omits them.
	DefaultLogFormat = "console"
	DefaultLogLevel  = "info"

	// DefaultConfigName is the file written by `sensorlog config init`.
	DefaultConfigName = "sensorlog.json"

	// BaseDirEnv overrides the base directory when no flag is given.
	BaseDirEnv = "SENSORLOG_HOME"
)

// Default returns a Config populated with the optional-field defaults.
// Required fields are left empty.
func Default() Config {
	return Config{
		Metadata: Metadata{
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			ChunkSize:             defaultChunkSize,
			LockTimeoutSeconds:    defaultLockTimeoutSeconds,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
