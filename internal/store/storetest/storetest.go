// Package storetest holds the behaviour every store.RunStore backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/npepeverse/pepebot/internal/store"
)

// Opener opens the backend under test. Calling it twice must reach the same
// underlying data, so a second call simulates a process restart.
type Opener func(t *testing.T) store.RunStore

// RunContract exercises the RunStore contract against a backend.
func RunContract(t *testing.T, open Opener) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent task reads empty", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		got, err := s.LastPeriod(ctx, "never_ran")
		if err != nil {
			t.Fatalf("LastPeriod: %v", err)
		}
		if got != "" {
			t.Errorf("LastPeriod = %q, want empty", got)
		}
	})

	t.Run("set then get survives reopen", func(t *testing.T) {
		s := open(t)
		if err := s.SetLastPeriod(ctx, "morning_greeting", "2024-01-01"); err != nil {
			t.Fatalf("SetLastPeriod: %v", err)
		}
		if err := s.SetLastPeriod(ctx, "weekend_hype", "2024-W01"); err != nil {
			t.Fatalf("SetLastPeriod: %v", err)
		}
		s.Close()

		s = open(t)
		defer s.Close()
		for task, want := range map[string]string{"morning_greeting": "2024-01-01", "weekend_hype": "2024-W01"} {
			got, err := s.LastPeriod(ctx, task)
			if err != nil {
				t.Fatalf("LastPeriod(%s): %v", task, err)
			}
			if got != want {
				t.Errorf("LastPeriod(%s) = %q, want %q", task, got, want)
			}
		}
	})

	t.Run("overwrite keeps one record", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		for _, p := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			if err := s.SetLastPeriod(ctx, "night_greeting", p); err != nil {
				t.Fatalf("SetLastPeriod: %v", err)
			}
		}
		recs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var periods []string
		for _, r := range recs {
			if r.TaskName == "night_greeting" {
				periods = append(periods, r.LastPeriod)
				if r.UpdatedAt.IsZero() {
					t.Error("UpdatedAt not set")
				}
			}
		}
		if diff := cmp.Diff([]string{"2024-01-03"}, periods); diff != "" {
			t.Errorf("records for night_greeting (-want +got):\n%s", diff)
		}
	})
}
