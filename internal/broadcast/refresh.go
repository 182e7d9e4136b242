package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/npepeverse/pepebot/internal/responses"
	"github.com/npepeverse/pepebot/internal/router"
)

// MinRefreshLines is the fewest usable lines a regenerated category must have.
const MinRefreshLines = 5

const maxRefreshLineLen = 280

var refreshPrompts = []struct {
	cat    responses.Category
	prompt string
}{
	{responses.Hype, "Write 12 short, fresh hype messages for the {project} ({ticker}) meme coin community chat. " +
		"Funny, upbeat, crypto slang welcome. One message per line, no numbering, no links, no addresses."},
	{responses.Wisdom, "Write 8 short 'frog wisdom' one-liners for the {ticker} community, each starting with " +
		"\"🐸 Frog wisdom:\". One per line, no numbering, no links, no addresses."},
}

// ErrTooFewLines is returned when an LLM answer yields fewer than MinRefreshLines.
var ErrTooFewLines = errors.New("too few usable lines")

// Refresher regenerates reply categories with the LLM. Each category is
// replaced wholesale or left alone.
type Refresher struct {
	table *responses.Table
	llm   router.Completer
}

// NewRefresher creates a Refresher.
func NewRefresher(t *responses.Table, llm router.Completer) *Refresher {
	return &Refresher{table: t, llm: llm}
}

// Run refreshes every category. Categories that fail keep their old list; the
// errors are joined so the scheduler retries the task.
func (r *Refresher) Run(ctx context.Context) error {
	var errs []error
	for _, p := range refreshPrompts {
		if err := r.refresh(ctx, p.cat, r.table.Expand(p.prompt)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Refresher) refresh(ctx context.Context, c responses.Category, prompt string) error {
	answer, err := r.llm.Complete(ctx, r.table.Expand(router.DefaultPersona), prompt)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c, err)
	}
	lines := ParseLines(answer)
	if len(lines) < MinRefreshLines {
		return fmt.Errorf("refresh %s: %w (%d)", c, ErrTooFewLines, len(lines))
	}
	if err := r.table.Replace(c, lines); err != nil {
		return fmt.Errorf("refresh %s: %w", c, err)
	}
	slog.Info("broadcast: category refreshed", "category", c.String(), "lines", len(lines))
	return nil
}

var (
	listMarkerRe = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|\(\d+\))\s*`)
	linkRe       = regexp.MustCompile(`(?i)https?://|\b0x[0-9a-f]{8,}`)
)

// ParseLines splits an LLM answer into reply lines: one per line, list markers
// and wrapping quotes stripped, blanks and overlong lines dropped. Lines with
// links or hex addresses are dropped so generated text never carries them.
func ParseLines(answer string) []string {
	var out []string
	for _, line := range strings.Split(answer, "\n") {
		line = listMarkerRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `"“”`)
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxRefreshLineLen || linkRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}
