package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout:       "15s",
			RatePerMinute: 20,
			MaxTokens:     300,
			ThinkingText:  "🐸 The NPEPE oracle is consulting the memes...",
		},
		Gateway: GatewayConfig{
			Host:         "0.0.0.0",
			Port:         10000,
			RateLimitRPM: 30,
		},
		Database: DatabaseConfig{
			FilePath:   "data/schedule_runs.json",
			SQLitePath: "data/pepebot.db",
		},
		Schedule: ScheduleConfig{
			Timezone:      "UTC",
			TimerMaxSleep: "15m",
		},
		Moderation: ModerationConfig{
			AdminCacheTTL: "10m",
			ForbiddenKeywords: FlexibleStringSlice{
				"airdrop", "giveaway", "dm me", "pm me", "inbox me", "free crypto",
				"claim now", "claim your", "double your", "investment opportunity",
				"guaranteed profit", "presale", "private sale", "whitelist spot",
				"recovery service", "wallet validation",
			},
			AllowedDomains: FlexibleStringSlice{
				"pump.fun", "t.me", "x.com", "twitter.com", "dexscreener.com",
				"birdeye.so", "solscan.io", "base44.app",
			},
		},
		Interjection: InterjectionConfig{
			Cooldown:   "90s",
			BaseChance: 0.20,
			HypeChance: 0.75,
			HypeKeywords: FlexibleStringSlice{
				"buy", "bought", "pump", "moon", "lfg", "send it", "green", "bullish",
				"rocket", "diamond", "hodl", "ape", "lets go", "ath",
			},
		},
		Project: ProjectConfig{
			Name:            "NextPepe",
			Ticker:          "$NPEPE",
			ContractAddress: "BJ65ym9UYPkcfLSUuE9j4uXYuiG6TgA4pFn393Eppump",
			Website:         "https://next-pepe-launchpad-2b8b3071.base44.app",
			Telegram:        "https://t.me/NPEPEVERSE",
			Twitter:         "https://x.com/NPEPE_Verse",
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "pepebot",
		},
	}
}

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads config from a json5 file, then overlays env vars.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(ExpandHome(path))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json5.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt64 := func(key string, dst *int64) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("%s: %q is not an integer id", key, v))
			return
		}
		*dst = n
	}

	// Secrets
	envStr("BOT_TOKEN", &c.Telegram.Token)
	envStr("WEBHOOK_SECRET", &c.Telegram.WebhookSecret)
	envStr("GROQ_API_KEY", &c.LLM.GroqAPIKey)
	envStr("OPENAI_API_KEY", &c.LLM.OpenAIAPIKey)
	envStr("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	envStr("DATABASE_URL", &c.Database.PostgresDSN)
	envStr("TASK_SECRET", &c.Gateway.TaskSecret)

	// Telegram
	envStr("WEBHOOK_BASE_URL", &c.Telegram.WebhookBaseURL)
	envInt64("GROUP_CHAT_ID", &c.Telegram.GroupChatID)
	envInt64("GROUP_OWNER_ID", &c.Telegram.OwnerID)

	// LLM
	envStr("PEPEBOT_LLM_PROVIDER", &c.LLM.Provider)
	envStr("PEPEBOT_LLM_MODEL", &c.LLM.Model)

	// Gateway host/port. PORT is what hosting platforms inject.
	envStr("PEPEBOT_HOST", &c.Gateway.Host)
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Gateway.Port = port
		} else {
			c.envErrs = append(c.envErrs, fmt.Errorf("PORT: %q is not a number", v))
		}
	}

	// Storage
	envStr("PEPEBOT_DB_BACKEND", &c.Database.Backend)
	if v := os.Getenv("PEPEBOT_DB_PATH"); v != "" {
		if c.Database.Kind() == "sqlite" {
			c.Database.SQLitePath = v
		} else {
			c.Database.FilePath = v
		}
	}

	// Schedule
	envStr("PEPEBOT_TIMEZONE", &c.Schedule.Timezone)
	if v := os.Getenv("PEPEBOT_TIMER_MODE"); v != "" {
		c.Schedule.TimerMode = v == "true" || v == "1"
	}

	// Telemetry
	envStr("PEPEBOT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("PEPEBOT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	if v := os.Getenv("PEPEBOT_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}
	if c.Telemetry.Endpoint != "" {
		c.Telemetry.Enabled = true
	}
}

// Validate reports every problem that would stop the bot from serving.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.Telegram.WebhookBaseURL == "" {
		errs = append(errs, errors.New("WEBHOOK_BASE_URL is required"))
	} else if !strings.HasPrefix(c.Telegram.WebhookBaseURL, "https://") && !strings.HasPrefix(c.Telegram.WebhookBaseURL, "http://") {
		errs = append(errs, fmt.Errorf("webhook base url %q must start with https://", c.Telegram.WebhookBaseURL))
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("gateway port %d out of range", c.Gateway.Port))
	}

	switch c.Database.Kind() {
	case "file", "sqlite":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres backend requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database backend %q", c.Database.Backend))
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "", "groq", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", c.Schedule.Timezone, err))
		}
	}

	for name, v := range map[string]string{
		"llm.timeout":                c.LLM.Timeout,
		"moderation.admin_cache_ttl": c.Moderation.AdminCacheTTL,
		"interjection.cooldown":      c.Interjection.Cooldown,
		"schedule.timer_max_sleep":   c.Schedule.TimerMaxSleep,
		"telegram.timeout":           c.Telegram.Timeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}

	for name, p := range map[string]float64{
		"interjection.base_chance": c.Interjection.BaseChance,
		"interjection.hype_chance": c.Interjection.HypeChance,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s: %v is not a probability", name, p))
		}
	}

	if c.Project.ContractAddress == "" {
		errs = append(errs, errors.New("project.contract_address is required"))
	}

	return errors.Join(errs...)
}

// Save writes the non-secret part of the config to a JSON file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
