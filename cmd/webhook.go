package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/npepeverse/pepebot/internal/channels/telegram"
	"github.com/npepeverse/pepebot/internal/config"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}
	cmd.AddCommand(webhookSetCmd())
	cmd.AddCommand(webhookDeleteCmd())
	cmd.AddCommand(webhookInfoCmd())
	return cmd
}

// botClient builds a Bot API client without the rest of the app.
func botClient() (*telegram.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Telegram.Token == "" {
		return nil, nil, errors.New("BOT_TOKEN is required")
	}
	client, err := telegram.New(cfg.Telegram, cfg.TelegramTimeout(), nil)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func webhookSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Register WEBHOOK_BASE_URL/<token> as the webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := botClient()
			if err != nil {
				return err
			}
			url := cfg.WebhookURL()
			if url == "" {
				return errors.New("WEBHOOK_BASE_URL is required")
			}
			if err := client.RegisterWebhook(cmd.Context(), url, cfg.Telegram.WebhookSecret); err != nil {
				return err
			}
			if err := client.SyncMenuCommands(cmd.Context()); err != nil {
				return fmt.Errorf("set menu commands: %w", err)
			}
			fmt.Printf("webhook set to %s\n", telegram.RedactToken(url))
			return nil
		},
	}
}

func webhookDeleteCmd() *cobra.Command {
	var dropPending bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := botClient()
			if err != nil {
				return err
			}
			if err := client.DeleteWebhook(cmd.Context(), dropPending); err != nil {
				return err
			}
			fmt.Println("webhook deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropPending, "drop-pending", false, "also discard updates Telegram has queued")
	return cmd
}

func webhookInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the current webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := botClient()
			if err != nil {
				return err
			}
			st, err := client.WebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			url := st.URL
			if url == "" {
				url = "(none)"
			} else {
				url = telegram.RedactToken(url)
			}
			fmt.Printf("url:             %s\n", url)
			fmt.Printf("pending updates: %d\n", st.PendingUpdates)
			if !st.LastErrorAt.IsZero() {
				fmt.Printf("last error:      %s (%s ago): %s\n",
					st.LastErrorAt.Format(time.RFC3339),
					time.Since(st.LastErrorAt).Round(time.Second),
					st.LastErrorMessage)
			}
			return nil
		},
	}
}
