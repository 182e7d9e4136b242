package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// openApp loads config and wires the bot for one-shot commands. Only the bot
// token is required; the webhook URL is not.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Telegram.Token == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}
	return buildApp(ctx, cfg)
}

func tickCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run every scheduled task that is due, once, and exit",
		Long: "Evaluates the schedule the same way an inbound request does. " +
			"Useful from an external cron when the server sleeps between requests.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			outcomes := a.sched.Tick(cmd.Context(), now)
			if len(outcomes) == 0 {
				fmt.Println("nothing due")
				return nil
			}
			var failed int
			for _, o := range outcomes {
				status := "ok"
				if o.Err != nil {
					status = "failed: " + o.Err.Error()
					failed++
				}
				fmt.Printf("%s  %s  %s  %s\n", o.Task, o.Period, o.Duration.Round(time.Millisecond), status)
			}
			if failed > 0 {
				return fmt.Errorf("%d task(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC 3339 time instead of now")
	return cmd
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return t, nil
}
