package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/npepeverse/pepebot/internal/config"
	"github.com/npepeverse/pepebot/internal/router"
)

// Client is the outbound side of the bot: it implements router.Messenger on
// top of the Bot API and manages the webhook registration.
type Client struct {
	bot  *telego.Bot
	menu *telego.InlineKeyboardMarkup
}

// New creates a Bot API client from config. menu is attached to messages sent
// with SendOptions.Menu.
func New(cfg config.TelegramConfig, timeout time.Duration, menu *telego.InlineKeyboardMarkup) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	opts := []telego.BotOption{
		telego.WithHTTPClient(&http.Client{Timeout: timeout, Transport: transport}),
		telego.WithDiscardLogger(),
	}
	if cfg.APIServer != "" {
		opts = append(opts, telego.WithAPIServer(strings.TrimRight(cfg.APIServer, "/")))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Client{bot: bot, menu: menu}, nil
}

// Bot exposes the underlying telego bot.
func (c *Client) Bot() *telego.Bot { return c.bot }

// SendText sends text and returns the new message id. Markdown that Telegram
// refuses to parse is resent once as plain text.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts router.SendOptions) (int, error) {
	params := tu.Message(tu.ID(chatID), text)
	if opts.Menu && c.menu != nil {
		params.ReplyMarkup = c.menu
	}
	if opts.ReplyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: opts.ReplyTo, AllowSendingWithoutReply: true}
	}
	if opts.Markdown {
		params.ParseMode = telego.ModeMarkdown
	}

	msg, err := c.bot.SendMessage(ctx, params)
	if err != nil && opts.Markdown && isParseError(err) {
		slog.Debug("telegram: markdown rejected, resending as plain text", "chat_id", chatID, "error", err)
		params.ParseMode = ""
		msg, err = c.bot.SendMessage(ctx, params)
	}
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return msg.MessageID, nil
}

// EditText replaces the text of an existing message, with the same plain-text
// retry as SendText.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, opts router.SendOptions) error {
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      text,
	}
	if opts.Menu && c.menu != nil {
		params.ReplyMarkup = c.menu
	}
	if opts.Markdown {
		params.ParseMode = telego.ModeMarkdown
	}

	_, err := c.bot.EditMessageText(ctx, params)
	if err != nil && opts.Markdown && isParseError(err) {
		params.ParseMode = ""
		_, err = c.bot.EditMessageText(ctx, params)
	}
	if err != nil {
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// DeleteMessage removes a message. The bot needs delete rights in groups.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{ChatID: tu.ID(chatID), MessageID: messageID}); err != nil {
		return fmt.Errorf("delete message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := c.bot.AnswerCallbackQuery(ctx, tu.CallbackQuery(callbackID)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Admins lists the user ids of chatID's administrators. It has the
// moderation.AdminFetcher signature.
func (c *Client) Admins(ctx context.Context, chatID int64) ([]int64, error) {
	members, err := c.bot.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{ChatID: tu.ID(chatID)})
	if err != nil {
		return nil, fmt.Errorf("get chat administrators for %d: %w", chatID, err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.MemberUser().ID)
	}
	return ids, nil
}

func isParseError(err error) bool {
	return strings.Contains(err.Error(), "can't parse entities")
}
