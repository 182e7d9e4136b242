// Package broadcast defines the static table of scheduled group posts.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/npepeverse/pepebot/internal/responses"
	"github.com/npepeverse/pepebot/internal/router"
	"github.com/npepeverse/pepebot/internal/scheduler"
)

// Task names, also used by the manual run endpoint and the schedule.disabled list.
const (
	MorningGreeting = "morning_greeting"
	AfternoonHype   = "afternoon_hype"
	EveningGreeting = "evening_greeting"
	NightGreeting   = "night_greeting"
	DailyWisdom     = "daily_wisdom"
	WeekendHype     = "weekend_hype"
	ContentRefresh  = "content_refresh"
)

// ErrNoGroupChat is returned by post actions when no target chat is configured.
var ErrNoGroupChat = errors.New("group chat id not configured")

// Deps are the collaborators the task actions use.
type Deps struct {
	Table     *responses.Table
	Messenger router.Messenger
	ChatID    int64

	// LLM enables content_refresh when non-nil and RefreshContent is set.
	LLM            router.Completer
	RefreshContent bool

	// Disabled names tasks to leave out of the table.
	Disabled []string
}

// Tasks returns the broadcast schedule with disabled tasks removed.
func Tasks(d Deps) []scheduler.Task {
	all := []scheduler.Task{
		{Name: MorningGreeting, Trigger: scheduler.Daily(8), Action: post(d, responses.MorningGreeting)},
		{Name: AfternoonHype, Trigger: scheduler.Daily(13), Action: post(d, responses.AfternoonGreeting)},
		{Name: DailyWisdom, Trigger: scheduler.Daily(16), Action: post(d, responses.Wisdom)},
		{Name: EveningGreeting, Trigger: scheduler.Daily(18), Action: post(d, responses.EveningGreeting)},
		{Name: NightGreeting, Trigger: scheduler.Daily(22), Action: post(d, responses.NightGreeting)},
		{Name: WeekendHype, Trigger: scheduler.Weekly(time.Saturday, 12), Action: post(d, responses.WeekendGreeting)},
	}
	if d.LLM != nil && d.RefreshContent {
		all = append(all, scheduler.Task{
			Name:    ContentRefresh,
			Trigger: scheduler.Weekly(time.Monday, 3),
			Action:  NewRefresher(d.Table, d.LLM).Run,
		})
	}

	disabled := make([]string, 0, len(d.Disabled))
	for _, n := range d.Disabled {
		disabled = append(disabled, NormalizeName(n))
	}
	tasks := all[:0]
	for _, t := range all {
		if slices.Contains(disabled, t.Name) {
			slog.Info("broadcast: task disabled", "task", t.Name)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// post sends one random line of c to the group. A send failure is returned so
// the scheduler retries within the same period.
func post(d Deps, c responses.Category) scheduler.Action {
	return func(ctx context.Context) error {
		if d.ChatID == 0 {
			return ErrNoGroupChat
		}
		text := d.Table.Pick(c)
		if _, err := d.Messenger.SendText(ctx, d.ChatID, text, router.SendOptions{}); err != nil {
			return fmt.Errorf("post %s: %w", c, err)
		}
		slog.Info("broadcast: posted", "category", c.String(), "chat_id", d.ChatID, "text", router.Preview(text))
		return nil
	}
}

// Names lists every task name Tasks can produce, for validating config.
func Names() []string {
	return []string{MorningGreeting, AfternoonHype, DailyWisdom, EveningGreeting, NightGreeting, WeekendHype, ContentRefresh}
}

// NormalizeName trims and lowercases a task name from config or the command line.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
