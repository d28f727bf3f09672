// Package pipeline runs one logging cycle: poll every sensor, append the
// records to the full log, then refresh the snapshot from the log's tail.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sensorlog/internal/config"
	"sensorlog/internal/datalog"
	"sensorlog/internal/logging"
	"sensorlog/internal/runlock"
	"sensorlog/internal/sensors"
)

// Gatherer polls sensors. *sensors.Poller satisfies it.
type Gatherer interface {
	Gather(ctx context.Context, list []sensors.Sensor, at time.Time) []sensors.Record
}

// Archiver mirrors records somewhere besides the text log. *archive.Store
// satisfies it.
type Archiver interface {
	InsertRecords(ctx context.Context, runID string, records []sensors.Record) (int, error)
}

// Options describes one cycle.
type Options struct {
	Sensors      []sensors.Sensor
	FullLogPath  string
	SnapshotPath string
	Rows         int
	Tail         datalog.TailOptions

	// LockTimeout bounds the wait for a concurrent run. Zero fails fast.
	LockTimeout time.Duration
	RunID       string
}

// OptionsFromConfig maps a loaded configuration onto cycle options.
func OptionsFromConfig(cfg *config.Config) Options {
	list := make([]sensors.Sensor, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		list = append(list, sensors.Sensor{
			Name:    s.Name,
			Address: s.Address,
			Signals: append([]string(nil), s.Signals...),
		})
	}
	return Options{
		Sensors:      list,
		FullLogPath:  cfg.FullLogPath,
		SnapshotPath: cfg.SnapshotPath,
		Rows:         cfg.Metadata.NumRowsToCopy,
		Tail:         datalog.TailOptions{ChunkSize: cfg.Metadata.ChunkSize},
		LockTimeout:  cfg.LockTimeout(),
	}
}

// Result reports what a cycle did.
type Result struct {
	RunID         string
	Started       time.Time
	Records       []sensors.Record
	Failures      int
	Archived      int
	SnapshotLines int
}

// Option customizes a Runner.
type Option func(*Runner)

// WithArchive mirrors each cycle's records into a.
func WithArchive(a Archiver) Option {
	return func(r *Runner) { r.archive = a }
}

// WithClock replaces time.Now, which stamps the records.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes cycles.
type Runner struct {
	opts     Options
	gatherer Gatherer
	archive  Archiver
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Runner. A nil logger discards output.
func New(opts Options, gatherer Gatherer, logger *slog.Logger, options ...Option) *Runner {
	r := &Runner{
		opts:     opts,
		gatherer: gatherer,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run executes one cycle while holding the full log's run lock. Records are
// appended only after every sensor has been polled, and the snapshot is only
// refreshed after a successful append.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.gatherer == nil {
		return Result{}, errors.New("pipeline: gatherer is required")
	}
	if r.opts.FullLogPath == "" || r.opts.SnapshotPath == "" {
		return Result{}, errors.New("pipeline: log paths are required")
	}

	logger := r.logger
	if _, tagged := logging.RunIDFromContext(ctx); !tagged && r.opts.RunID != "" {
		logger = logger.With(slog.String(logging.FieldRunID, r.opts.RunID))
	}

	lock := runlock.New(runlock.PathFor(r.opts.FullLogPath))
	if err := lock.Acquire(ctx, r.opts.LockTimeout); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("run lock release failed", slog.String("error", err.Error()))
		}
	}()

	result := Result{RunID: r.opts.RunID, Started: r.now()}
	result.Records = r.gatherer.Gather(ctx, r.opts.Sensors, result.Started)
	result.Failures = countFailures(result.Records)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := datalog.Append(r.opts.FullLogPath, result.Records); err != nil {
		return result, err
	}
	logger.Info("records appended",
		slog.String(logging.FieldPath, r.opts.FullLogPath),
		slog.Int(logging.FieldRows, len(result.Records)),
		slog.Int("failures", result.Failures),
	)

	if r.archive != nil {
		n, err := r.archive.InsertRecords(ctx, r.opts.RunID, result.Records)
		if err != nil {
			// The text log already holds the cycle; a lagging archive is not fatal.
			logger.Warn("archive insert failed", slog.String("error", err.Error()))
		} else {
			result.Archived = n
		}
	}

	lines, err := datalog.CopyLastLines(ctx, r.opts.FullLogPath, r.opts.SnapshotPath, r.opts.Rows, r.opts.Tail)
	if err != nil {
		return result, fmt.Errorf("refresh snapshot: %w", err)
	}
	result.SnapshotLines = lines
	logger.Info("snapshot refreshed",
		slog.String(logging.FieldPath, r.opts.SnapshotPath),
		slog.Int(logging.FieldRows, lines),
	)
	return result, nil
}

func countFailures(records []sensors.Record) int {
	n := 0
	for _, record := range records {
		for _, field := range record.Signals() {
			if field.Value == sensors.Sentinel {
				n++
			}
		}
	}
	return n
}
