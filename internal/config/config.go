package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for pepebot.
type Config struct {
	Telegram     TelegramConfig     `json:"telegram"`
	LLM          LLMConfig          `json:"llm"`
	Gateway      GatewayConfig      `json:"gateway"`
	Database     DatabaseConfig     `json:"database"`
	Schedule     ScheduleConfig     `json:"schedule"`
	Moderation   ModerationConfig   `json:"moderation"`
	Interjection InterjectionConfig `json:"interjection"`
	Project      ProjectConfig      `json:"project"`
	Responses    ResponsesConfig    `json:"responses,omitempty"`
	Telemetry    TelemetryConfig    `json:"telemetry,omitempty"`

	// envErrs collects env values that could not be parsed; reported by Validate.
	envErrs []error
}

// LLMConfig selects the completion backend used for open questions and
// content refresh. API keys are NEVER read from the config file.
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`         // "groq", "openai", "gemini"; empty = first key present
	Model          string `json:"model,omitempty"`            // empty = provider default
	APIBase        string `json:"api_base,omitempty"`         // override for OpenAI-compatible endpoints
	Timeout        string `json:"timeout,omitempty"`          // per completion (default "15s")
	RatePerMinute  int    `json:"rate_per_minute,omitempty"`  // completions per minute across all chats (default 20)
	SystemPrompt   string `json:"system_prompt,omitempty"`    // persona override
	MaxTokens      int    `json:"max_tokens,omitempty"`       // default 300
	ContentRefresh *bool  `json:"content_refresh,omitempty"`  // weekly hype/wisdom regeneration (default true)
	ThinkingText   string `json:"thinking_text,omitempty"`    // placeholder shown while waiting
	GroqAPIKey     string `json:"-"`                          // from env GROQ_API_KEY only
	OpenAIAPIKey   string `json:"-"`                          // from env OPENAI_API_KEY only
	GeminiAPIKey   string `json:"-"`                          // from env GEMINI_API_KEY only
}

// ContentRefreshEnabled reports whether the weekly regeneration task is scheduled.
func (l LLMConfig) ContentRefreshEnabled() bool {
	return l.ContentRefresh == nil || *l.ContentRefresh
}

// GatewayConfig controls the HTTP listener.
type GatewayConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	RateLimitRPM int    `json:"rate_limit_rpm,omitempty"` // health and task requests per minute per IP (<= 0 = off); the webhook is never limited
	TaskSecret   string `json:"-"`                        // from env TASK_SECRET only
}

// Addr returns host:port for net/http.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// DatabaseConfig selects where schedule run records live.
// PostgresDSN is NEVER read from the config file, only from env DATABASE_URL.
type DatabaseConfig struct {
	Backend     string `json:"backend,omitempty"`     // "file", "sqlite", "postgres"; empty = postgres when DSN set, else file
	FilePath    string `json:"file_path,omitempty"`   // JSON run-record file
	SQLitePath  string `json:"sqlite_path,omitempty"` // SQLite database file
	PostgresDSN string `json:"-"`
}

// Kind resolves the effective backend name.
func (d DatabaseConfig) Kind() string {
	if d.Backend != "" {
		return strings.ToLower(d.Backend)
	}
	if d.PostgresDSN != "" {
		return "postgres"
	}
	return "file"
}

// ScheduleConfig controls the broadcast scheduler.
type ScheduleConfig struct {
	Timezone      string              `json:"timezone,omitempty"`        // IANA name, default "UTC"
	TimerMode     bool                `json:"timer_mode,omitempty"`      // tick from a wake-up timer as well as from traffic
	TimerMaxSleep string              `json:"timer_max_sleep,omitempty"` // cap between timer wake-ups (default "15m")
	Disabled      FlexibleStringSlice `json:"disabled,omitempty"`        // task names to leave out
}

// ModerationConfig controls the group spam gate.
type ModerationConfig struct {
	Enabled           *bool               `json:"enabled,omitempty"` // default true
	AllChats          bool                `json:"all_chats,omitempty"`
	ForbiddenKeywords FlexibleStringSlice `json:"forbidden_keywords,omitempty"`
	AllowedDomains    FlexibleStringSlice `json:"allowed_domains,omitempty"`
	AdminCacheTTL     string              `json:"admin_cache_ttl,omitempty"` // default "10m"
}

// IsEnabled reports whether the moderation gate runs.
func (m ModerationConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// InterjectionConfig controls unsolicited hype replies in groups.
type InterjectionConfig struct {
	Cooldown     string              `json:"cooldown,omitempty"` // default "90s"
	BaseChance   float64             `json:"base_chance,omitempty"`
	HypeChance   float64             `json:"hype_chance,omitempty"`
	HypeKeywords FlexibleStringSlice `json:"hype_keywords,omitempty"`
}

// ProjectConfig holds the community facts substituted into canned replies.
type ProjectConfig struct {
	Name            string `json:"name"`
	Ticker          string `json:"ticker"`
	ContractAddress string `json:"contract_address"`
	PumpLink        string `json:"pump_link,omitempty"` // default https://pump.fun/<contract>
	Website         string `json:"website,omitempty"`
	Telegram        string `json:"telegram,omitempty"`
	Twitter         string `json:"twitter,omitempty"`
}

// BuyLink returns the pump.fun link for the contract unless overridden.
func (p ProjectConfig) BuyLink() string {
	if p.PumpLink != "" {
		return p.PumpLink
	}
	return "https://pump.fun/" + p.ContractAddress
}

// ResponsesConfig points at an optional json5 override file for reply tables.
type ResponsesConfig struct {
	OverridesPath string `json:"overrides_path,omitempty"`
	Watch         bool   `json:"watch,omitempty"` // reload on change
}

// TelemetryConfig configures OpenTelemetry export for traces.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`      // enable OTLP export (default false)
	Endpoint    string            `json:"endpoint,omitempty"`     // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext transport for local collectors
	ServiceName string            `json:"service_name,omitempty"` // default "pepebot"
	Headers     map[string]string `json:"headers,omitempty"`
}

// parseDuration returns def when s is empty or invalid.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// LLMTimeout is the per-completion deadline.
func (c *Config) LLMTimeout() time.Duration { return parseDuration(c.LLM.Timeout, 15*time.Second) }

// AdminCacheTTL bounds how often chat administrators are fetched.
func (c *Config) AdminCacheTTL() time.Duration {
	return parseDuration(c.Moderation.AdminCacheTTL, 10*time.Minute)
}

// InterjectionCooldown is the minimum gap between ambient hype replies.
func (c *Config) InterjectionCooldown() time.Duration {
	return parseDuration(c.Interjection.Cooldown, 90*time.Second)
}

// TimerMaxSleep caps the scheduler's timer-mode sleep.
func (c *Config) TimerMaxSleep() time.Duration {
	return parseDuration(c.Schedule.TimerMaxSleep, 15*time.Minute)
}

// TelegramTimeout is the Bot API HTTP client timeout.
func (c *Config) TelegramTimeout() time.Duration {
	return parseDuration(c.Telegram.Timeout, 30*time.Second)
}

// Location resolves the schedule timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
