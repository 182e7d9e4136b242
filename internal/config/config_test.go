package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the overlay reads so the host env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BOT_TOKEN", "WEBHOOK_BASE_URL", "WEBHOOK_SECRET", "GROQ_API_KEY", "GEMINI_API_KEY",
		"OPENAI_API_KEY", "GROUP_CHAT_ID", "GROUP_OWNER_ID", "DATABASE_URL", "TASK_SECRET",
		"PORT", "PEPEBOT_HOST", "PEPEBOT_DB_BACKEND", "PEPEBOT_DB_PATH", "PEPEBOT_TIMEZONE",
		"PEPEBOT_LLM_PROVIDER", "PEPEBOT_LLM_MODEL", "PEPEBOT_TIMER_MODE",
		"PEPEBOT_TELEMETRY_ENDPOINT", "PEPEBOT_TELEMETRY_PROTOCOL", "PEPEBOT_TELEMETRY_INSECURE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 10000 {
		t.Errorf("port = %d, want 10000", cfg.Gateway.Port)
	}
	if cfg.LLMTimeout() != 15*time.Second {
		t.Errorf("llm timeout = %v, want 15s", cfg.LLMTimeout())
	}
	if cfg.AdminCacheTTL() != 10*time.Minute {
		t.Errorf("admin ttl = %v, want 10m", cfg.AdminCacheTTL())
	}
	if cfg.InterjectionCooldown() != 90*time.Second {
		t.Errorf("cooldown = %v, want 90s", cfg.InterjectionCooldown())
	}
	if cfg.Database.Kind() != "file" {
		t.Errorf("backend = %q, want file", cfg.Database.Kind())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pepebot.json5")
	body := `{
		// comments are fine in json5
		telegram: { webhook_base_url: "https://file.example.com", group_chat_id: -100 },
		schedule: { timezone: "Europe/Berlin" },
		interjection: { base_chance: 0.5 },
	}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("GROUP_CHAT_ID", "-1009")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.GroupChatID != -1009 {
		t.Errorf("group chat = %d, env should win", cfg.Telegram.GroupChatID)
	}
	if cfg.Gateway.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Gateway.Port)
	}
	if cfg.Interjection.BaseChance != 0.5 {
		t.Errorf("base chance = %v, want 0.5", cfg.Interjection.BaseChance)
	}
	if got := cfg.Location().String(); got != "Europe/Berlin" {
		t.Errorf("location = %q", got)
	}
	if got := cfg.WebhookURL(); got != "https://file.example.com/123:abc" {
		t.Errorf("webhook url = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Kind() != "postgres" {
		t.Errorf("backend = %q, want postgres", cfg.Database.Kind())
	}

	t.Setenv("PEPEBOT_DB_BACKEND", "sqlite")
	t.Setenv("PEPEBOT_DB_PATH", "/tmp/x.db")
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Kind() != "sqlite" || cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Errorf("got %q at %q", cfg.Database.Kind(), cfg.Database.SQLitePath)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROUP_OWNER_ID", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Schedule.Timezone = "Mars/Olympus"
	cfg.Interjection.Cooldown = "soon"
	cfg.Database.Backend = "redis"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"GROUP_OWNER_ID", "BOT_TOKEN", "WEBHOOK_BASE_URL", "Mars/Olympus", "interjection.cooldown", "redis"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "PEPEBOT_DOTENV_PROBE"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q", key, got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestProjectBuyLink(t *testing.T) {
	p := ProjectConfig{ContractAddress: "ABC"}
	if got := p.BuyLink(); got != "https://pump.fun/ABC" {
		t.Errorf("BuyLink = %q", got)
	}
	p.PumpLink = "https://example.com/buy"
	if got := p.BuyLink(); got != "https://example.com/buy" {
		t.Errorf("BuyLink override = %q", got)
	}
}
