package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// ConfigOption customizes the generated configuration document.
type ConfigOption func(doc map[string]any)

// NewConfigDoc returns a minimal valid configuration document with no servers.
// Paths are relative so they resolve against whatever base directory the
// test passes to config.Load.
func NewConfigDoc(opts ...ConfigOption) map[string]any {
	doc := map[string]any{
		"metadata": map[string]any{
			"full_database_path":  "data",
			"full_database_name":  "full.csv",
			"small_database_path": "data",
			"small_database_name": "small.csv",
			"num_rows_to_copy":    10,
		},
		"servers": []any{},
	}
	for _, opt := range opts {
		opt(doc)
	}
	return doc
}

// WithServer appends a server entry.
func WithServer(name, address string, signals ...string) ConfigOption {
	return func(doc map[string]any) {
		if signals == nil {
			signals = []string{}
		}
		servers, _ := doc["servers"].([]any)
		doc["servers"] = append(servers, map[string]any{
			"name":    name,
			"address": address,
			"signals": signals,
		})
	}
}

// WithMetadata sets a metadata key.
func WithMetadata(key string, value any) ConfigOption {
	return func(doc map[string]any) {
		doc["metadata"].(map[string]any)[key] = value
	}
}

// WithoutMetadata removes a metadata key.
func WithoutMetadata(key string) ConfigOption {
	return func(doc map[string]any) {
		delete(doc["metadata"].(map[string]any), key)
	}
}

// WithLogging sets the logging section.
func WithLogging(level, format string) ConfigOption {
	return func(doc map[string]any) {
		doc["logging"] = map[string]any{"level": level, "format": format}
	}
}

// WriteConfig marshals a configuration document into dir/name and returns
// the file path.
func WriteConfig(t testing.TB, dir, name string, opts ...ConfigOption) string {
	t.Helper()

	data, err := json.MarshalIndent(NewConfigDoc(opts...), "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}
	return path
}
