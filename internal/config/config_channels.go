package config

import "strings"

// TelegramConfig configures the Telegram bot. The token and webhook secret are
// secrets and come from env only.
type TelegramConfig struct {
	Token          string `json:"-"`                          // from env BOT_TOKEN only
	WebhookSecret  string `json:"-"`                          // from env WEBHOOK_SECRET only
	WebhookBaseURL string `json:"webhook_base_url,omitempty"` // public base URL, e.g. https://bot.example.com
	GroupChatID    int64  `json:"group_chat_id,omitempty"`    // broadcast target
	OwnerID        int64  `json:"owner_id,omitempty"`         // exempt from moderation
	Proxy          string `json:"proxy,omitempty"`            // HTTP proxy URL
	APIServer      string `json:"api_server,omitempty"`       // custom Bot API server
	Timeout        string `json:"timeout,omitempty"`          // Bot API client timeout (default "30s")
}

// WebhookPath is the route Telegram posts updates to: "/" + bot token.
func (c *Config) WebhookPath() string {
	return "/" + c.Telegram.Token
}

// WebhookURL joins the public base URL and the token path.
// Empty when either part is missing.
func (c *Config) WebhookURL() string {
	if c.Telegram.WebhookBaseURL == "" || c.Telegram.Token == "" {
		return ""
	}
	return strings.TrimRight(c.Telegram.WebhookBaseURL, "/") + c.WebhookPath()
}
