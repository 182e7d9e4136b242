package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/npepeverse/pepebot/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedule_runs (
	task_name   TEXT PRIMARY KEY,
	last_period TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
`

// RunStore implements store.RunStore on an embedded SQLite file.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens the database at path and applies the schema.
func NewRunStore(path string) (*RunStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between concurrent webhook requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &RunStore{db: db}, nil
}

func (s *RunStore) LastPeriod(ctx context.Context, task string) (string, error) {
	var period string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_period FROM schedule_runs WHERE task_name = ?`, task).Scan(&period)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read run record %s: %w", task, err)
	}
	return period, nil
}

func (s *RunStore) SetLastPeriod(ctx context.Context, task, period string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedule_runs (task_name, last_period, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(task_name) DO UPDATE SET last_period = excluded.last_period, updated_at = excluded.updated_at`,
		task, period, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write run record %s: %w", task, err)
	}
	return nil
}

func (s *RunStore) List(ctx context.Context) ([]store.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_name, last_period, updated_at FROM schedule_runs ORDER BY task_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunRecord
	for rows.Next() {
		var r store.RunRecord
		if err := rows.Scan(&r.TaskName, &r.LastPeriod, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RunStore) Close() error { return s.db.Close() }
