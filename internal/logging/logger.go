package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sensorlog/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// OutputPaths lists console destinations: "stdout", "stderr" or file
	// paths. Empty means stderr so stdout stays free for command output.
	OutputPaths []string
	// Writer replaces OutputPaths when set.
	Writer io.Writer
	// FilePath additionally receives every record as JSON.
	FilePath string
}

// New constructs a slog logger using the provided options. Unknown levels
// and formats are errors. The returned close func releases any log files
// New opened; it is never nil and is safe to call more than once.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = config.DefaultLogFormat
	}
	if err := config.CheckLogFormat(format); err != nil {
		return nil, nil, fmt.Errorf("log format: %w", err)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := level <= slog.LevelDebug

	files := &fileSet{}
	out := opts.Writer
	if out == nil {
		w, err := openWriters(opts.OutputPaths, files)
		if err != nil {
			_ = files.Close()
			return nil, nil, err
		}
		out = w
	}

	var handler slog.Handler
	if format == "json" {
		handler = newJSONHandler(out, levelVar, addSource)
	} else {
		handler = newPrettyHandler(out, levelVar, addSource)
	}

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			_ = files.Close()
			return nil, nil, err
		}
		files.add(file)
		handler = TeeHandler(handler, newJSONHandler(file, levelVar, addSource))
	}

	return slog.New(handler), files.Close, nil
}

// NewFromConfig creates a logger from the logging section of cfg. Non-empty
// level and format override the configured values and are checked against
// the same allowed values.
func NewFromConfig(cfg *config.Config, level, format string) (*slog.Logger, func() error, error) {
	opts := Options{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		opts.FilePath = cfg.Logging.File
	}
	if strings.TrimSpace(level) != "" {
		opts.Level = level
	}
	if strings.TrimSpace(format) != "" {
		opts.Format = format
	}
	return New(opts)
}

// parseLevel maps a level name onto slog. Empty means info.
func parseLevel(level string) (slog.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = config.DefaultLogLevel
	}
	if err := config.CheckLogLevel(normalized); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	switch normalized {
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, nil
	}
}

// fileSet tracks the files a logger writes to.
type fileSet struct {
	mu    sync.Mutex
	files []*os.File
}

func (s *fileSet) add(f *os.File) {
	s.mu.Lock()
	s.files = append(s.files, f)
	s.mu.Unlock()
}

// Close closes every tracked file once.
func (s *fileSet) Close() error {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file %s: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func openWriters(paths []string, files *fileSet) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer

	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openLogFile(trimmed)
			if err != nil {
				return nil, err
			}
			files.add(file)
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
