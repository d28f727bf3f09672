package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorlog/internal/config"
	"sensorlog/internal/pipeline"
	"sensorlog/internal/runlock"
	"sensorlog/internal/sensors"
	"sensorlog/internal/testsupport"
)

var errMockFailure = errors.New("mock failure")

type mockGatherer struct {
	GatherFn func(ctx context.Context, list []sensors.Sensor, at time.Time) []sensors.Record
	calls    int
}

func (m *mockGatherer) Gather(ctx context.Context, list []sensors.Sensor, at time.Time) []sensors.Record {
	m.calls++
	if m.GatherFn != nil {
		return m.GatherFn(ctx, list, at)
	}
	records := make([]sensors.Record, 0, len(list))
	for _, s := range list {
		r := sensors.NewRecord(at, s.Name)
		for _, sig := range s.Signals {
			r.Set(sig, "1")
		}
		records = append(records, r)
	}
	return records
}

type mockArchiver struct {
	InsertFn func(ctx context.Context, runID string, records []sensors.Record) (int, error)
}

func (m *mockArchiver) InsertRecords(ctx context.Context, runID string, records []sensors.Record) (int, error) {
	return m.InsertFn(ctx, runID, records)
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

func clock() time.Time { return fixedNow }

func paths(t *testing.T) (full, snap string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "data", "full.csv"), filepath.Join(dir, "small", "small.csv")
}

func TestRunAppendsAndKeepsLastTen(t *testing.T) {
	full, snap := paths(t)
	testsupport.WriteLines(t, full, testsupport.NumberedLines(99))

	runner := pipeline.New(pipeline.Options{
		Sensors:      []sensors.Sensor{{Name: "lab", Address: "h:1", Signals: []string{"temp", "hum"}}},
		FullLogPath:  full,
		SnapshotPath: snap,
		Rows:         10,
		LockTimeout:  time.Second,
	}, &mockGatherer{}, nil, pipeline.WithClock(clock))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	newLine := "2024-05-06 07:08:09,lab,1,1"
	fullLines := testsupport.ReadLines(t, full)
	require.Len(t, fullLines, 100)
	assert.Equal(t, newLine, fullLines[99])

	snapLines := testsupport.ReadLines(t, snap)
	require.Len(t, snapLines, 10)
	assert.Equal(t, "row-091", snapLines[0])
	assert.Equal(t, newLine, snapLines[9])

	assert.Equal(t, 10, result.SnapshotLines)
	assert.Equal(t, fixedNow, result.Started)
	assert.Len(t, result.Records, 1)
	assert.Zero(t, result.Failures)
}

func TestRunShortLogCopiesEverything(t *testing.T) {
	full, snap := paths(t)
	testsupport.WriteLines(t, full, []string{"r1", "r2"})

	runner := pipeline.New(pipeline.Options{
		Sensors:      []sensors.Sensor{{Name: "lab", Signals: []string{"temp"}}},
		FullLogPath:  full,
		SnapshotPath: snap,
		Rows:         10,
	}, &mockGatherer{}, nil, pipeline.WithClock(clock))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.SnapshotLines)
	assert.Equal(t, []string{"r1", "r2", "2024-05-06 07:08:09,lab,1"}, testsupport.ReadLines(t, snap))
}

func TestRunCreatesMissingLog(t *testing.T) {
	full, snap := paths(t)

	runner := pipeline.New(pipeline.Options{
		Sensors: []sensors.Sensor{
			{Name: "a", Signals: []string{"x"}},
			{Name: "b", Signals: []string{"y"}},
		},
		FullLogPath:  full,
		SnapshotPath: snap,
		Rows:         1,
	}, &mockGatherer{}, nil, pipeline.WithClock(clock))

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-06 07:08:09,a,1", "2024-05-06 07:08:09,b,1"}, testsupport.ReadLines(t, full))
	assert.Equal(t, []string{"2024-05-06 07:08:09,b,1"}, testsupport.ReadLines(t, snap))
}

func TestRunCountsFailures(t *testing.T) {
	full, snap := paths(t)
	gatherer := &mockGatherer{GatherFn: func(_ context.Context, _ []sensors.Sensor, at time.Time) []sensors.Record {
		r := sensors.NewRecord(at, "lab")
		r.Set("temp", sensors.Sentinel)
		r.Set("hum", "40")
		return []sensors.Record{r}
	}}

	result, err := pipeline.New(pipeline.Options{FullLogPath: full, SnapshotPath: snap, Rows: 5}, gatherer, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failures)
	assert.Contains(t, testsupport.ReadLines(t, full)[0], ",lab,###,40")
}

func TestRunArchivesRecords(t *testing.T) {
	full, snap := paths(t)
	var gotRun string
	archiver := &mockArchiver{InsertFn: func(_ context.Context, runID string, records []sensors.Record) (int, error) {
		gotRun = runID
		return len(records) * 2, nil
	}}

	runner := pipeline.New(pipeline.Options{
		Sensors:      []sensors.Sensor{{Name: "lab", Signals: []string{"t", "h"}}},
		FullLogPath:  full,
		SnapshotPath: snap,
		Rows:         10,
		RunID:        "run-42",
	}, &mockGatherer{}, nil, pipeline.WithArchive(archiver))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Archived)
	assert.Equal(t, "run-42", gotRun)
}

func TestRunArchiveFailureIsNotFatal(t *testing.T) {
	full, snap := paths(t)
	archiver := &mockArchiver{InsertFn: func(context.Context, string, []sensors.Record) (int, error) {
		return 0, errMockFailure
	}}

	runner := pipeline.New(pipeline.Options{
		Sensors:      []sensors.Sensor{{Name: "lab", Signals: []string{"t"}}},
		FullLogPath:  full,
		SnapshotPath: snap,
		Rows:         10,
	}, &mockGatherer{}, nil, pipeline.WithArchive(archiver))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Archived)
	assert.Equal(t, 1, result.SnapshotLines)
}

func TestRunCancelledDuringGatherWritesNothing(t *testing.T) {
	full, snap := paths(t)
	ctx, cancel := context.WithCancel(context.Background())
	gatherer := &mockGatherer{GatherFn: func(_ context.Context, _ []sensors.Sensor, at time.Time) []sensors.Record {
		cancel()
		return []sensors.Record{sensors.NewRecord(at, "lab")}
	}}

	_, err := pipeline.New(pipeline.Options{FullLogPath: full, SnapshotPath: snap, Rows: 10}, gatherer, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(full)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	_, statErr = os.Stat(snap)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRunWaitsForLock(t *testing.T) {
	full, snap := paths(t)
	holder := runlock.New(runlock.PathFor(full))
	require.NoError(t, holder.Acquire(context.Background(), time.Second))
	t.Cleanup(func() { _ = holder.Release() })

	gatherer := &mockGatherer{}
	_, err := pipeline.New(pipeline.Options{
		FullLogPath:  full,
		SnapshotPath: snap,
		LockTimeout:  100 * time.Millisecond,
	}, gatherer, nil).Run(context.Background())

	require.ErrorIs(t, err, runlock.ErrLocked)
	assert.Zero(t, gatherer.calls)
}

func TestRunRequiresPaths(t *testing.T) {
	_, err := pipeline.New(pipeline.Options{}, &mockGatherer{}, nil).Run(context.Background())
	assert.Error(t, err)

	_, err = pipeline.New(pipeline.Options{FullLogPath: "a", SnapshotPath: "b"}, nil, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	base := t.TempDir()
	testsupport.WriteConfig(t, base, "c.json",
		testsupport.WithServer("lab", "10.0.0.1:80", "temp", "hum"),
		testsupport.WithMetadata("chunk_size", 512),
		testsupport.WithMetadata("lock_timeout_seconds", 3),
	)
	cfg, err := config.Load("c.json", base)
	require.NoError(t, err)

	opts := pipeline.OptionsFromConfig(cfg)
	assert.Equal(t, []sensors.Sensor{{Name: "lab", Address: "10.0.0.1:80", Signals: []string{"temp", "hum"}}}, opts.Sensors)
	assert.Equal(t, cfg.FullLogPath, opts.FullLogPath)
	assert.Equal(t, cfg.SnapshotPath, opts.SnapshotPath)
	assert.Equal(t, 10, opts.Rows)
	assert.Equal(t, 512, opts.Tail.ChunkSize)
	assert.Equal(t, 3*time.Second, opts.LockTimeout)
}
