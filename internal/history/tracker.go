// Package history records runs and per-file outcomes in a SQLite database,
// so past savings and failures survive across invocations.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	// SQLite driver for database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// Tracker persists one run and its per-file outcome rows.
type Tracker struct {
	db    *sql.DB
	runID string
}

// Open opens (creating if needed) the history database at path and
// initializes the schema.
func Open(path string) (*Tracker, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	t := &Tracker{db: db}
	if err := t.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return t, nil
}

func (t *Tracker) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		encoder TEXT NOT NULL,
		interrupted BOOLEAN DEFAULT 0,
		files_processed INTEGER DEFAULT 0,
		files_failed INTEGER DEFAULT 0,
		bytes_saved INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS files (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		outcome TEXT NOT NULL,
		original_size INTEGER NOT NULL,
		new_size INTEGER NOT NULL,
		reason TEXT,
		finished_at TIMESTAMP NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id);
	CREATE INDEX IF NOT EXISTS idx_files_outcome ON files(outcome);
	`
	if _, err := t.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// BeginRun inserts the run row and fixes the run id for subsequent
// RecordFile/FinishRun calls.
func (t *Tracker) BeginRun(encoder string) error {
	t.runID = uuid.NewString()
	_, err := t.db.Exec(`
		INSERT INTO runs (id, started_at, encoder) VALUES (?, ?, ?)
	`, t.runID, time.Now().UTC(), encoder)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RunID returns the current run's identifier (empty before BeginRun).
func (t *Tracker) RunID() string { return t.runID }

// RecordFile appends one terminal per-file outcome to the current run.
func (t *Tracker) RecordFile(path, outcome string, originalSize, newSize int64, reason string) error {
	_, err := t.db.Exec(`
		INSERT INTO files (run_id, path, outcome, original_size, new_size, reason, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.runID, path, outcome, originalSize, newSize, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert file outcome: %w", err)
	}
	return nil
}

// FinishRun stamps the run row with its final aggregates.
func (t *Tracker) FinishRun(interrupted bool, filesProcessed, filesFailed int, bytesSaved int64) error {
	_, err := t.db.Exec(`
		UPDATE runs SET finished_at = ?, interrupted = ?,
			files_processed = ?, files_failed = ?, bytes_saved = ?
		WHERE id = ?
	`, time.Now().UTC(), interrupted, filesProcessed, filesFailed, bytesSaved, t.runID)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	return nil
}

// RunSummary is one row of past-run aggregates for reporting.
type RunSummary struct {
	ID             string
	StartedAt      time.Time
	Encoder        string
	Interrupted    bool
	FilesProcessed int
	FilesFailed    int
	BytesSaved     int64
}

// RecentRuns returns up to limit past runs, newest first.
func (t *Tracker) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := t.db.Query(`
		SELECT id, started_at, encoder, interrupted,
			files_processed, files_failed, bytes_saved
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Encoder, &r.Interrupted,
			&r.FilesProcessed, &r.FilesFailed, &r.BytesSaved); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (t *Tracker) Close() error {
	if err := t.db.Close(); err != nil {
		return fmt.Errorf("close history database: %w", err)
	}
	return nil
}
