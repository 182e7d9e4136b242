package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/npepeverse/pepebot/internal/store"
	"github.com/npepeverse/pepebot/internal/store/file"
)

// memStore implements store.RunStore for testing.
type memStore struct {
	mu      sync.Mutex
	periods map[string]string
	readErr error
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{periods: make(map[string]string)}
}

func (m *memStore) LastPeriod(_ context.Context, task string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	return m.periods[task], nil
}

func (m *memStore) SetLastPeriod(_ context.Context, task, period string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.periods[task] = period
	return nil
}

func (m *memStore) List(_ context.Context) ([]store.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.RunRecord
	for k, v := range m.periods {
		out = append(out, store.RunRecord{TaskName: k, LastPeriod: v})
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func counting(n *atomic.Int32) Action {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func TestTick_DailyOncePerPeriod(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	s, err := New(st, time.UTC, []Task{{Name: "nine", Trigger: Daily(9), Action: counting(&runs)}})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if out := s.Tick(ctx, at("2024-01-01 08:59")); len(out) != 0 {
		t.Fatalf("fired before trigger hour: %+v", out)
	}
	out := s.Tick(ctx, at("2024-01-01 09:05"))
	if len(out) != 1 || out[0].Err != nil {
		t.Fatalf("want one successful run, got %+v", out)
	}
	if got := st.periods["nine"]; got != "2024-01-01" {
		t.Errorf("last period = %q, want 2024-01-01", got)
	}
	if out := s.Tick(ctx, at("2024-01-01 09:30")); len(out) != 0 {
		t.Errorf("second tick same day fired: %+v", out)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}

	// Late in the next day still catches up today's occurrence, once.
	s.Tick(ctx, at("2024-01-02 23:50"))
	s.Tick(ctx, at("2024-01-02 23:55"))
	if runs.Load() != 2 {
		t.Errorf("runs = %d after next day, want 2", runs.Load())
	}
}

func TestTick_FailureRetriesWithinPeriod(t *testing.T) {
	var calls int
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "flaky", Trigger: Daily(8), Action: func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("telegram 502")
		}
		return nil
	}}})
	ctx := context.Background()

	out := s.Tick(ctx, at("2024-03-10 08:00"))
	if len(out) != 1 || out[0].Err == nil {
		t.Fatalf("want failed outcome, got %+v", out)
	}
	if _, ok := st.periods["flaky"]; ok {
		t.Fatal("marker persisted after failure")
	}
	out = s.Tick(ctx, at("2024-03-10 08:01"))
	if len(out) != 1 || out[0].Err != nil {
		t.Fatalf("want retry success, got %+v", out)
	}
	s.Tick(ctx, at("2024-03-10 08:02"))
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTick_WeeklyUsesISOWeek(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "weekend", Trigger: Weekly(time.Saturday, 12), Action: counting(&runs)}})
	ctx := context.Background()

	// 2024-01-05 is a Friday.
	s.Tick(ctx, at("2024-01-05 13:00"))
	if runs.Load() != 0 {
		t.Fatal("fired on wrong weekday")
	}
	s.Tick(ctx, at("2024-01-06 11:59"))
	if runs.Load() != 0 {
		t.Fatal("fired before hour")
	}
	s.Tick(ctx, at("2024-01-06 12:00"))
	s.Tick(ctx, at("2024-01-06 18:00"))
	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want 1", runs.Load())
	}
	if got := st.periods["weekend"]; got != "2024-W01" {
		t.Errorf("period = %q, want 2024-W01", got)
	}
	// Sunday of the same week: wrong weekday, no run.
	s.Tick(ctx, at("2024-01-07 12:00"))
	// Next Saturday fires again.
	s.Tick(ctx, at("2024-01-13 12:00"))
	if runs.Load() != 2 {
		t.Errorf("runs = %d, want 2", runs.Load())
	}
}

func TestTick_UsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	var runs atomic.Int32
	st := newMemStore()
	s, _ := New(st, loc, []Task{{Name: "morning", Trigger: Daily(8), Action: counting(&runs)}})

	// 12:30 UTC is 07:30 in New York (EST).
	s.Tick(context.Background(), at("2024-01-15 12:30"))
	if runs.Load() != 0 {
		t.Fatal("fired using UTC hour instead of location hour")
	}
	s.Tick(context.Background(), at("2024-01-15 13:30"))
	if runs.Load() != 1 {
		t.Fatal("did not fire at 08:30 New York")
	}
}

func TestTick_ReadErrorMeansNeverRun(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	st.periods["t"] = "2024-01-01"
	st.readErr = errors.New("db down")
	s, _ := New(st, time.UTC, []Task{{Name: "t", Trigger: Daily(0), Action: counting(&runs)}})

	s.Tick(context.Background(), at("2024-01-01 10:00"))
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 (unreadable marker biases toward firing)", runs.Load())
	}
}

func TestTick_PersistErrorReported(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	st.setErr = errors.New("disk full")
	s, _ := New(st, time.UTC, []Task{{Name: "t", Trigger: Daily(0), Action: counting(&runs)}})

	out := s.Tick(context.Background(), at("2024-01-01 10:00"))
	if len(out) != 1 || out[0].Err != nil || out[0].PersistErr == nil {
		t.Fatalf("outcome = %+v, want action ok and persist error", out)
	}
}

func TestTick_ConcurrentCallsFireOnce(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "t", Trigger: Daily(9), Action: func(context.Context) error {
		runs.Add(1)
		time.Sleep(5 * time.Millisecond)
		return nil
	}}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Tick(context.Background(), at("2024-01-01 09:00"))
		}()
	}
	wg.Wait()
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}

func TestTick_SkipsWhileAnotherTickRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "slow", Trigger: Daily(9), Action: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}})

	done := make(chan []Outcome, 1)
	go func() { done <- s.Tick(context.Background(), at("2024-01-01 09:00")) }()
	<-started

	second := make(chan []Outcome, 1)
	go func() { second <- s.Tick(context.Background(), at("2024-01-01 09:01")) }()
	select {
	case outs := <-second:
		if len(outs) != 0 {
			t.Errorf("concurrent tick fired %d tasks, want 0", len(outs))
		}
	case <-time.After(time.Second):
		t.Fatal("concurrent tick waited for the running one")
	}

	close(release)
	if outs := <-done; len(outs) != 1 || outs[0].Err != nil {
		t.Errorf("first tick outcomes = %+v", outs)
	}
}

func TestTick_SurvivesRestart(t *testing.T) {
	var runs atomic.Int32
	path := filepath.Join(t.TempDir(), "runs.json")
	tasks := []Task{{Name: "night", Trigger: Daily(22), Action: counting(&runs)}}

	fs, err := file.NewRunStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := New(fs, time.UTC, tasks)
	s.Tick(context.Background(), at("2024-05-01 22:10"))

	fs2, err := file.NewRunStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := New(fs2, time.UTC, tasks)
	s2.Tick(context.Background(), at("2024-05-01 22:40"))
	if runs.Load() != 1 {
		t.Errorf("runs = %d across restart, want 1", runs.Load())
	}
}

func TestRunNow(t *testing.T) {
	var runs atomic.Int32
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "evening", Trigger: Daily(18), Action: counting(&runs)}})
	ctx := context.Background()

	if _, err := s.RunNow(ctx, "nope", at("2024-01-01 10:00")); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err = %v, want ErrUnknownTask", err)
	}
	out, err := s.RunNow(ctx, "evening", at("2024-01-01 10:00"))
	if err != nil || out.Err != nil {
		t.Fatalf("RunNow: %v / %v", err, out.Err)
	}
	// The forced run counts for today's period.
	s.Tick(ctx, at("2024-01-01 19:00"))
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}

func TestRunNow_FailureNotRecorded(t *testing.T) {
	boom := errors.New("send failed")
	st := newMemStore()
	s, _ := New(st, time.UTC, []Task{{Name: "evening", Trigger: Daily(18), Action: func(context.Context) error { return boom }}})

	out, err := s.RunNow(context.Background(), "evening", at("2024-01-01 10:00"))
	if !errors.Is(err, boom) || !errors.Is(out.Err, boom) {
		t.Fatalf("RunNow = %v / %v, want %v", err, out.Err, boom)
	}
	if last, _ := st.LastPeriod(context.Background(), "evening"); last != "" {
		t.Errorf("failed forced run recorded period %q", last)
	}
}

func TestNew_Validates(t *testing.T) {
	noop := func(context.Context) error { return nil }
	cases := map[string][]Task{
		"duplicate":   {{Name: "a", Trigger: Daily(1), Action: noop}, {Name: "a", Trigger: Daily(2), Action: noop}},
		"bad hour":    {{Name: "a", Trigger: Daily(24), Action: noop}},
		"nil action":  {{Name: "a", Trigger: Daily(1)}},
		"empty name":  {{Trigger: Daily(1), Action: noop}},
		"bad weekday": {{Name: "a", Trigger: Weekly(time.Weekday(9), 1), Action: noop}},
	}
	for name, tasks := range cases {
		if _, err := New(newMemStore(), time.UTC, tasks); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestTriggerHelpers(t *testing.T) {
	if got := Weekly(time.Saturday, 12).CronExpr(); got != "0 12 * * 6" {
		t.Errorf("weekly cron = %q", got)
	}
	if got := Daily(8).CronExpr(); got != "0 8 * * *" {
		t.Errorf("daily cron = %q", got)
	}
	// 2020-12-31 belongs to ISO week 53 of 2020; 2021-01-04 is week 1 of 2021.
	if got := ISOWeek(at("2020-12-31 00:00")); got != "2020-W53" {
		t.Errorf("ISOWeek = %q", got)
	}
	if got := ISOWeek(at("2021-01-04 00:00")); got != "2021-W01" {
		t.Errorf("ISOWeek = %q", got)
	}
	if got := Weekly(time.Saturday, 12).String(); got != "weekly Sat 12:00" {
		t.Errorf("String = %q", got)
	}
}

func TestStatus(t *testing.T) {
	st := newMemStore()
	noop := func(context.Context) error { return nil }
	s, _ := New(st, time.UTC, []Task{
		{Name: "morning", Trigger: Daily(8), Action: noop},
		{Name: "night", Trigger: Daily(22), Action: noop},
	})
	st.periods["morning"] = "2024-01-01"

	got := s.Status(context.Background(), at("2024-01-01 10:00"))
	want := []TaskStatus{
		{Name: "morning", Trigger: "daily 08:00", Cron: "0 8 * * *", LastPeriod: "2024-01-01", Period: "2024-01-01", Next: at("2024-01-02 08:00")},
		{Name: "night", Trigger: "daily 22:00", Cron: "0 22 * * *", Period: "2024-01-01", Next: at("2024-01-01 22:00")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Status mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	s, _ := New(newMemStore(), time.UTC, []Task{{Name: "t", Trigger: Daily(0), Action: counting(&runs)}})
	s.now = func() time.Time { return at("2024-01-01 12:00") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}
