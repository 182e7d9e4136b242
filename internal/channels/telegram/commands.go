package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/npepeverse/pepebot/internal/config"
)

// Callback data carried by the main menu buttons.
const (
	CallbackAbout = "about"
	CallbackCA    = "ca"
)

// MainMenu builds the inline keyboard shown under /start and info replies.
// Link buttons with an empty URL are left out.
func MainMenu(p config.ProjectConfig) *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🐸 About "+p.Ticker).WithCallbackData(CallbackAbout),
			tu.InlineKeyboardButton("📜 Contract Address").WithCallbackData(CallbackCA),
		),
	}
	if link := p.BuyLink(); link != "" {
		rows = append(rows, tu.InlineKeyboardRow(tu.InlineKeyboardButton("💰 Buy on Pump.fun").WithURL(link)))
	}

	var social []telego.InlineKeyboardButton
	for _, b := range []struct{ text, url string }{
		{"🌐 Website", p.Website},
		{"✈️ Telegram", p.Telegram},
		{"🐦 Twitter", p.Twitter},
	} {
		if b.url != "" {
			social = append(social, tu.InlineKeyboardButton(b.text).WithURL(b.url))
		}
	}
	if len(social) > 0 {
		rows = append(rows, tu.InlineKeyboardRow(social...))
	}
	return tu.InlineKeyboard(rows...)
}

// AllowedUpdates are the update kinds the bot handles.
var AllowedUpdates = []string{"message", "callback_query"}

// SetWebhook points Telegram at url. A non-empty secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	err := c.bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: AllowedUpdates,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the webhook registration.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	if err := c.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// WebhookStatus is the part of getWebhookInfo the CLI prints.
type WebhookStatus struct {
	URL              string    `json:"url"`
	PendingUpdates   int       `json:"pending_update_count"`
	LastErrorAt      time.Time `json:"last_error_at,omitzero"`
	LastErrorMessage string    `json:"last_error_message,omitempty"`
}

// WebhookInfo reports the current webhook registration.
func (c *Client) WebhookInfo(ctx context.Context) (WebhookStatus, error) {
	info, err := c.bot.GetWebhookInfo(ctx)
	if err != nil {
		return WebhookStatus{}, fmt.Errorf("get webhook info: %w", err)
	}
	st := WebhookStatus{
		URL:              info.URL,
		PendingUpdates:   info.PendingUpdateCount,
		LastErrorMessage: info.LastErrorMessage,
	}
	if info.LastErrorDate != 0 {
		st.LastErrorAt = time.Unix(info.LastErrorDate, 0).UTC()
	}
	return st, nil
}

// RegisterWebhook replaces any existing webhook with url, like a fresh deploy:
// delete first, then set.
func (c *Client) RegisterWebhook(ctx context.Context, url, secret string) error {
	if err := c.DeleteWebhook(ctx, false); err != nil {
		slog.Warn("telegram: delete webhook before set failed", "error", err)
	}
	if err := c.SetWebhook(ctx, url, secret); err != nil {
		return err
	}
	slog.Info("telegram: webhook registered", "url", RedactToken(url))
	return nil
}

// SyncMenuCommands registers the bot's slash commands via setMyCommands.
func (c *Client) SyncMenuCommands(ctx context.Context) error {
	return c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: DefaultMenuCommands(),
	})
}

// DefaultMenuCommands returns the bot menu commands.
func DefaultMenuCommands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "start", Description: "Show the main menu"},
		{Command: "help", Description: "Show the main menu"},
	}
}

// RedactToken hides the token path segment of a webhook URL for logs.
func RedactToken(u string) string {
	for i := len(u) - 1; i >= 0; i-- {
		if u[i] == '/' {
			if i+1 < len(u) {
				return u[:i+1] + "***"
			}
			return u
		}
	}
	return u
}
