package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/npepeverse/pepebot/internal/store"
)

// ErrUnknownTask is returned by RunNow for a name not in the task table.
var ErrUnknownTask = errors.New("unknown scheduled task")

var tracer = otel.Tracer("github.com/npepeverse/pepebot/internal/scheduler")

// Action is the side effect of a scheduled task.
type Action func(ctx context.Context) error

// Task is one entry of the static schedule table.
type Task struct {
	Name    string
	Trigger Trigger
	Action  Action
}

// Outcome describes one attempted run.
type Outcome struct {
	Task       string        `json:"task"`
	Period     string        `json:"period"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
	PersistErr error         `json:"-"`
}

// TaskStatus is a read-only view used by the tasks endpoint and CLI.
type TaskStatus struct {
	Name       string    `json:"name"`
	Trigger    string    `json:"trigger"`
	Cron       string    `json:"cron"`
	LastPeriod string    `json:"last_period"`
	Period     string    `json:"period"`
	Pending    bool      `json:"pending"`
	Next       time.Time `json:"next"`
}

// Scheduler fires each task at most once per period, recording successful runs
// in a store.RunStore. Inside one process a Tick that finds another Tick or
// RunNow in progress returns at once without firing anything; the tasks it
// would have fired stay due for the next tick. Two processes sharing a store
// can still both fire a task in the same period.
type Scheduler struct {
	store  store.RunStore
	loc    *time.Location
	tasks  []Task
	byName map[string]int
	now    func() time.Time

	mu sync.Mutex // held by the running Tick or RunNow
}

// New validates the task table and returns a scheduler evaluating triggers in loc.
func New(s store.RunStore, loc *time.Location, tasks []Task) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	byName := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("task %d: empty name", i)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("task %s: duplicate name", t.Name)
		}
		if t.Action == nil {
			return nil, fmt.Errorf("task %s: nil action", t.Name)
		}
		if err := t.Trigger.Validate(); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.Name, err)
		}
		byName[t.Name] = i
	}
	return &Scheduler{
		store:  s,
		loc:    loc,
		tasks:  append([]Task(nil), tasks...),
		byName: byName,
		now:    time.Now,
	}, nil
}

// Tasks returns the static table.
func (s *Scheduler) Tasks() []Task {
	return append([]Task(nil), s.tasks...)
}

// Location returns the reference timezone.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Tick runs every task that is due at now and records the period of each
// success. A failed action leaves the marker untouched so the next tick in the
// same period retries it. An unreadable marker is treated as "never run".
// Tick returns nil immediately when another Tick or RunNow holds the scheduler.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []Outcome {
	if !s.mu.TryLock() {
		slog.Debug("scheduler: tick already running, skipped")
		return nil
	}
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "scheduler.Tick")
	defer span.End()

	now = now.In(s.loc)
	var outcomes []Outcome
	for _, t := range s.tasks {
		last, err := s.store.LastPeriod(ctx, t.Name)
		if err != nil {
			slog.Warn("scheduler: read run record failed, treating as never run", "task", t.Name, "error", err)
			last = ""
		}
		if !t.Trigger.Due(now, last) {
			continue
		}
		outcomes = append(outcomes, s.run(ctx, t, now))
	}
	span.SetAttributes(attribute.Int("scheduler.fired", len(outcomes)))
	return outcomes
}

// RunNow executes the named task regardless of its trigger and, on success,
// records the current period so the regular tick does not repeat it. A failed
// action is returned both as the error and in Outcome.Err.
func (s *Scheduler) RunNow(ctx context.Context, name string, now time.Time) (Outcome, error) {
	i, ok := s.byName[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.run(ctx, s.tasks[i], now.In(s.loc))
	return out, out.Err
}

// run executes one task and persists its period on success. Caller holds s.mu.
func (s *Scheduler) run(ctx context.Context, t Task, now time.Time) Outcome {
	period := t.Trigger.Period(now)
	ctx, span := tracer.Start(ctx, "scheduler.task")
	defer span.End()
	span.SetAttributes(attribute.String("task", t.Name), attribute.String("period", period))

	start := time.Now()
	out := Outcome{Task: t.Name, Period: period}
	out.Err = t.Action(ctx)
	out.Duration = time.Since(start)

	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		slog.Error("scheduler: task failed, will retry next tick", "task", t.Name, "period", period, "error", out.Err)
		return out
	}

	if err := s.store.SetLastPeriod(ctx, t.Name, period); err != nil {
		out.PersistErr = err
		span.RecordError(err)
		slog.Error("scheduler: task ran but marker not saved", "task", t.Name, "period", period, "error", err)
		return out
	}
	slog.Info("scheduler: task complete", "task", t.Name, "period", period, "duration", out.Duration)
	return out
}

// Status reports, for each task, its last recorded period and the next time
// it will be eligible to fire.
func (s *Scheduler) Status(ctx context.Context, now time.Time) []TaskStatus {
	now = now.In(s.loc)
	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		last, err := s.store.LastPeriod(ctx, t.Name)
		if err != nil {
			slog.Warn("scheduler: read run record failed", "task", t.Name, "error", err)
		}
		st := TaskStatus{
			Name:       t.Name,
			Trigger:    t.Trigger.String(),
			Cron:       t.Trigger.CronExpr(),
			LastPeriod: last,
			Period:     t.Trigger.Period(now),
			Pending:    t.Trigger.Due(now, last),
		}
		st.Next = s.next(t, now, st.Pending)
		out = append(out, st)
	}
	return out
}

// next is now for a pending task, otherwise the next cron boundary after now.
func (s *Scheduler) next(t Task, now time.Time, pending bool) time.Time {
	if pending {
		return now
	}
	next, err := gronx.NextTickAfter(t.Trigger.CronExpr(), now, false)
	if err != nil {
		slog.Warn("scheduler: next tick", "task", t.Name, "error", err)
		return time.Time{}
	}
	return next.In(s.loc)
}

// Run ticks on a timer independent of traffic: once at start, then after
// sleeping until the earliest next boundary (capped at maxSleep). Tasks left
// pending by a failure are retried after maxSleep. Blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context, maxSleep time.Duration) {
	if maxSleep <= 0 {
		maxSleep = 15 * time.Minute
	}
	for {
		now := s.now()
		s.Tick(ctx, now)

		sleep := maxSleep
		for _, st := range s.Status(ctx, now) {
			if st.Pending || st.Next.IsZero() {
				continue
			}
			if d := st.Next.Sub(now); d < sleep {
				sleep = d
			}
		}
		if sleep < time.Second {
			sleep = time.Second
		}
		slog.Debug("scheduler: timer sleeping", "for", sleep)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
