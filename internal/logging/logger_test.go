package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorlog/internal/config"
	"sensorlog/internal/logging"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	require.NoError(t, err)

	logging.NewComponentLogger(logger, "sensors").Warn("signal fetch failed",
		logging.FieldSensor, "lab",
		logging.FieldSignal, "temp",
		"error", errors.New("connection refused"),
	)

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "WARN  sensors: signal fetch failed [lab/temp]")
	assert.Contains(t, line, `error="connection refused"`)
	assert.NotContains(t, line, "component=")
	assert.NotContains(t, line, ".go:")
}

func TestConsoleDebugIncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("fetched", logging.FieldRows, 3)

	assert.Contains(t, buf.String(), "DEBUG fetched")
	assert.Contains(t, buf.String(), "logger_test.go:")
	assert.Contains(t, buf.String(), "rows=3")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Info("run complete", logging.FieldRows, 10)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run complete", entry["msg"])
	assert.Equal(t, float64(10), entry[logging.FieldRows])
	assert.Contains(t, entry, "ts")
}

func TestUnsupportedFormat(t *testing.T) {
	_, _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "unsupported value")
}

func TestUnsupportedLevel(t *testing.T) {
	for _, level := range []string{"loud", "trace", "warning"} {
		_, _, err := logging.New(logging.Options{Level: level, Writer: &bytes.Buffer{}})
		assert.ErrorContains(t, err, "log level: unsupported value", level)
	}

	logger, _, err := logging.New(logging.Options{Level: " WARN ", Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestFilePathMirrorsJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "sensorlog.log")

	logger, closeLogs, err := logging.New(logging.Options{Format: "console", Writer: &buf, FilePath: path})
	require.NoError(t, err)
	defer closeLogs()

	logger.Info("appended", logging.FieldPath, "/data/full.csv")

	assert.Contains(t, buf.String(), "INFO  appended")
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "appended", entry["msg"])
	assert.Equal(t, "/data/full.csv", entry[logging.FieldPath])
}

func TestNewFromConfigOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "run.log")

	logger, closeLogs, err := logging.NewFromConfig(&cfg, "debug", "json")
	require.NoError(t, err)
	defer closeLogs()
	logger.Debug("debug line")

	content, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"debug line"`)
}

func TestNewFromConfigNil(t *testing.T) {
	logger, closeLogs, err := logging.NewFromConfig(nil, "", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeLogs())
}

func TestNewFromConfigRejectsUnknownOverrides(t *testing.T) {
	cfg := config.Default()

	_, _, err := logging.NewFromConfig(&cfg, "loud", "")
	assert.ErrorContains(t, err, `unsupported value "loud"`)

	_, _, err = logging.NewFromConfig(&cfg, "", "xml")
	assert.ErrorContains(t, err, `unsupported value "xml"`)
}

func TestCloseReleasesLogFiles(t *testing.T) {
	dir := t.TempDir()
	mirror := filepath.Join(dir, "mirror.log")
	console := filepath.Join(dir, "console.log")

	logger, closeLogs, err := logging.New(logging.Options{
		OutputPaths: []string{console, "stderr"},
		FilePath:    mirror,
	})
	require.NoError(t, err)
	logger.Info("before close")
	require.NoError(t, closeLogs())
	require.NoError(t, closeLogs())

	// Writes after close fail inside the handlers and are dropped.
	logger.Info("after close")

	for _, path := range []string{mirror, console} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "before close")
		assert.NotContains(t, string(content), "after close")
	}
}

func TestNewClosesOpenedFilesOnError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, closeLogs, err := logging.New(logging.Options{
		OutputPaths: []string{filepath.Join(dir, "console.log")},
		FilePath:    filepath.Join(blocker, "mirror.log"),
	})
	require.Error(t, err)
	assert.Nil(t, closeLogs)
}

func TestWithContextAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Writer: &buf})
	require.NoError(t, err)

	ctx := logging.ContextWithRunID(context.Background(), "abc-123")
	logging.WithContext(ctx, logger).Info("started")

	assert.Contains(t, buf.String(), "run_id=abc-123")

	id, ok := logging.RunIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)

	_, ok = logging.RunIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	assert.False(t, logger.Enabled(context.Background(), 12))
	logger.Error("nothing")
}
