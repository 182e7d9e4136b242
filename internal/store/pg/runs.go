package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/npepeverse/pepebot/internal/store"
)

// OpenDB opens a pgx-backed database/sql pool and checks connectivity.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// RunStore implements store.RunStore backed by Postgres.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Open migrates the schema to the latest version and returns a ready store.
func Open(dsn string) (*RunStore, error) {
	if err := MigrateUp(dsn); err != nil {
		return nil, err
	}
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewRunStore(db), nil
}

func (s *RunStore) LastPeriod(ctx context.Context, task string) (string, error) {
	var period string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_period FROM schedule_runs WHERE task_name = $1`, task).Scan(&period)
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
		`INSERT INTO schedule_runs (task_name, last_period, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (task_name) DO UPDATE SET last_period = EXCLUDED.last_period, updated_at = EXCLUDED.updated_at`,
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
