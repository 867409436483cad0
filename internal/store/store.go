package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run kinds.
const (
	KindGenerate = "generate"
	KindCleanup  = "cleanup"
	KindBackfill = "backfill"
)

// Store wraps SQLite access for run bookkeeping.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            kind TEXT,
            status TEXT,
            output_name TEXT,
            day_count INTEGER,
            record_count INTEGER,
            kept_count INTEGER,
            deleted_count INTEGER,
            error TEXT,
            created_at TIMESTAMP,
            finished_at TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
            run_id TEXT,
            line TEXT,
            created_at TIMESTAMP
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run records one invocation of generate, cleanup or backfill.
type Run struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	OutputName   string     `json:"output_name,omitempty"`
	DayCount     int        `json:"day_count"`
	RecordCount  int        `json:"record_count"`
	KeptCount    int        `json:"kept_count"`
	DeletedCount int        `json:"deleted_count"`
	Error        *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func (s *Store) StartRun(ctx context.Context, id, kind string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs(id, kind, status, created_at) VALUES(?,?,?,?)`,
		id, kind, "running", ts)
	return err
}

func (s *Store) FinishRun(ctx context.Context, r Run, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET status=?, output_name=?, day_count=?, record_count=?, kept_count=?, deleted_count=?, error=?, finished_at=? WHERE id=?`,
		r.Status, r.OutputName, r.DayCount, r.RecordCount, r.KeptCount, r.DeletedCount, r.Error, ts, r.ID)
	return err
}

func (s *Store) AppendRunLog(ctx context.Context, runID, line string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_logs(run_id, line, created_at) VALUES(?,?,?)`, runID, line, ts)
	return err
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, kind, status, output_name, day_count, record_count, kept_count, deleted_count, error, created_at, finished_at FROM runs WHERE id=?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, status, output_name, day_count, record_count, kept_count, deleted_count, error, created_at, finished_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *Store) RunLogs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line FROM run_logs WHERE run_id=? ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var outputName, errMsg sql.NullString
	var finished sql.NullTime
	var dayCount, recordCount, keptCount, deletedCount sql.NullInt64
	if err := row.Scan(&r.ID, &r.Kind, &r.Status, &outputName, &dayCount, &recordCount, &keptCount, &deletedCount, &errMsg, &r.CreatedAt, &finished); err != nil {
		return nil, err
	}
	r.OutputName = outputName.String
	r.DayCount = int(dayCount.Int64)
	r.RecordCount = int(recordCount.Int64)
	r.KeptCount = int(keptCount.Int64)
	r.DeletedCount = int(deletedCount.Int64)
	if errMsg.Valid {
		r.Error = &errMsg.String
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}

// Health returns err if DB not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
