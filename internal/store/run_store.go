package store

import (
	"context"
	"time"
)

// RunRecord is the persisted "last fired" marker of one scheduled task.
// There is exactly one record per task name; it is overwritten, never appended.
type RunRecord struct {
	TaskName   string    `json:"task_name"`
	LastPeriod string    `json:"last_period"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunStore persists run records across restarts.
//
// LastPeriod returns "" with a nil error when the task has never run.
type RunStore interface {
	LastPeriod(ctx context.Context, task string) (string, error)
	SetLastPeriod(ctx context.Context, task, period string) error
	List(ctx context.Context) ([]RunRecord, error)
	Close() error
}
