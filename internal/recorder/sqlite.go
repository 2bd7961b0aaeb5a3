package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PricePulse/internal/model"
)

// SQLiteRecorder persists report generation history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read run history while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS generation_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			report_date TEXT NOT NULL,
			trigger     TEXT,
			status      TEXT NOT NULL,
			samples     INTEGER,
			dropped     INTEGER,
			duration_ms INTEGER,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON generation_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_date ON generation_runs(report_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts run, assigning an ID when it has none.
func (r *SQLiteRecorder) RecordRun(run *GenerationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO generation_runs
		(id, started_at, report_date, trigger, status, samples, dropped, duration_ms, note)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.ReportDate, string(run.Trigger), string(run.Status),
		run.Samples, run.Dropped, run.DurationMs, run.Note,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, started_at, report_date, trigger, status, samples, dropped, duration_ms, note
		FROM generation_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []GenerationRun
	for rows.Next() {
		var run GenerationRun
		var startedMs int64
		var trigger, status string
		if err := rows.Scan(&run.ID, &startedMs, &run.ReportDate, &trigger, &status,
			&run.Samples, &run.Dropped, &run.DurationMs, &run.Note); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedMs)
		run.Trigger = model.TriggerType(trigger)
		run.Status = model.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
