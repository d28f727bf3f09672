package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sensorlog/internal/sensors"
)

// Store persists readings in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Reading is one archived signal value.
type Reading struct {
	ID      int64
	RunID   string
	TakenAt string
	Room    string
	Signal  string
	Value   string
	Failed  bool
}

// SignalSummary aggregates the readings of one room and signal.
type SignalSummary struct {
	Room      string
	Signal    string
	Readings  int
	Failed    int
	LastAt    string
	LastValue string
}

// Open creates or connects to the archive at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertRecords stores every signal of records in one transaction and
// returns the number of readings written.
func (s *Store) InsertRecords(ctx context.Context, runID string, records []sensors.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (run_id, taken_at, room, signal, value, failed) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, record := range records {
		for _, field := range record.Signals() {
			failed := 0
			if field.Value == sensors.Sentinel {
				failed = 1
			}
			if _, err := stmt.ExecContext(ctx, runID, record.Datetime(), record.Room(), field.Key, field.Value, failed); err != nil {
				return 0, fmt.Errorf("insert reading %s/%s: %w", record.Room(), field.Key, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit readings: %w", err)
	}
	return inserted, nil
}

// Count returns the number of archived readings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM readings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// Recent returns up to limit readings, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, taken_at, room, signal, value, failed
           FROM readings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var (
			r      Reading
			failed int
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.TakenAt, &r.Room, &r.Signal, &r.Value, &failed); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Failed = failed != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summaries aggregates readings per room and signal, ordered by room then signal.
func (s *Store) Summaries(ctx context.Context) ([]SignalSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.room, r.signal, COUNT(1), SUM(r.failed),
               (SELECT l.taken_at FROM readings l WHERE l.room = r.room AND l.signal = r.signal ORDER BY l.id DESC LIMIT 1),
               (SELECT l.value FROM readings l WHERE l.room = r.room AND l.signal = r.signal ORDER BY l.id DESC LIMIT 1)
          FROM readings r
         GROUP BY r.room, r.signal
         ORDER BY r.room, r.signal`)
	if err != nil {
		return nil, fmt.Errorf("summarize readings: %w", err)
	}
	defer rows.Close()

	var out []SignalSummary
	for rows.Next() {
		var sum SignalSummary
		if err := rows.Scan(&sum.Room, &sum.Signal, &sum.Readings, &sum.Failed, &sum.LastAt, &sum.LastValue); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
