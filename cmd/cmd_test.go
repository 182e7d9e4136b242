package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/joho/godotenv"

	"github.com/npepeverse/pepebot/internal/broadcast"
	"github.com/npepeverse/pepebot/internal/config"
	"github.com/npepeverse/pepebot/internal/scheduler"
)

const testToken = "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghi"

func TestApplyAnswers(t *testing.T) {
	cfg := config.Default()
	secrets, err := applyAnswers(cfg, onboardAnswers{
		ProjectName:     " Frog ",
		Ticker:          "$FROG",
		ContractAddress: "FrogPump111",
		BotToken:        testToken,
		WebhookBase:     "https://frog.example/",
		GroupChatID:     "-100123",
		LLMProvider:     "gemini",
		LLMAPIKey:       "g-key",
		Backend:         "sqlite",
		Moderate:        false,
	})
	if err != nil {
		t.Fatalf("applyAnswers: %v", err)
	}

	if cfg.Project.Name != "Frog" || cfg.Telegram.WebhookBaseURL != "https://frog.example" {
		t.Errorf("project/webhook not normalised: %q %q", cfg.Project.Name, cfg.Telegram.WebhookBaseURL)
	}
	if cfg.Telegram.GroupChatID != -100123 || cfg.Telegram.OwnerID != 0 {
		t.Errorf("ids = %d/%d", cfg.Telegram.GroupChatID, cfg.Telegram.OwnerID)
	}
	if cfg.Database.Kind() != "sqlite" || cfg.Moderation.IsEnabled() {
		t.Errorf("backend %q moderation %v", cfg.Database.Kind(), cfg.Moderation.IsEnabled())
	}
	if cfg.Schedule.Timezone != "UTC" {
		t.Errorf("blank timezone answer changed timezone to %q", cfg.Schedule.Timezone)
	}

	want := map[string]string{"BOT_TOKEN": testToken, "GEMINI_API_KEY": "g-key"}
	if diff := cmp.Diff(want, secrets); diff != "" {
		t.Errorf("secrets mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyAnswers_BadID(t *testing.T) {
	if _, err := applyAnswers(config.Default(), onboardAnswers{GroupChatID: "chat"}); err == nil {
		t.Fatal("non-numeric group chat id accepted")
	}
}

func TestMergeEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=8080\nBOT_TOKEN=old\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := mergeEnvFile(path, map[string]string{"BOT_TOKEN": "new", "GROQ_API_KEY": "k"}); err != nil {
		t.Fatalf("mergeEnvFile: %v", err)
	}

	got, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"PORT": "8080", "BOT_TOKEN": "new", "GROQ_API_KEY": "k"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("env file mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenRunStore(t *testing.T) {
	dir := t.TempDir()
	for _, db := range []config.DatabaseConfig{
		{Backend: "file", FilePath: filepath.Join(dir, "runs.json")},
		{Backend: "SQLite", SQLitePath: filepath.Join(dir, "runs.db")},
	} {
		rs, err := openRunStore(db)
		if err != nil {
			t.Fatalf("openRunStore(%s): %v", db.Backend, err)
		}
		if err := rs.SetLastPeriod(context.Background(), "morning_greeting", "2024-03-01"); err != nil {
			t.Errorf("%s: SetLastPeriod: %v", db.Backend, err)
		}
		rs.Close()
	}

	if _, err := openRunStore(config.DatabaseConfig{Backend: "redis"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestBuildApp(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.Token = testToken
	cfg.Telegram.GroupChatID = -100
	cfg.Database.FilePath = filepath.Join(t.TempDir(), "runs.json")
	cfg.Schedule.Disabled = config.FlexibleStringSlice{" Night_Greeting "}

	a, err := buildApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	var names []string
	for _, task := range a.sched.Tasks() {
		names = append(names, task.Name)
	}
	want := []string{
		broadcast.MorningGreeting, broadcast.AfternoonHype, broadcast.DailyWisdom,
		broadcast.EveningGreeting, broadcast.WeekendHype,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tasks without LLM (-want +got):\n%s", diff)
	}
}

func TestBuildApp_BadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.json5")
	if err := os.WriteFile(path, []byte(`{not_a_category: ["x"]}`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Telegram.Token = testToken
	cfg.Database.FilePath = filepath.Join(t.TempDir(), "runs.json")
	cfg.Responses.OverridesPath = path

	if _, err := buildApp(context.Background(), cfg); err == nil {
		t.Fatal("unknown override category accepted")
	}
}

func TestPrintStatus(t *testing.T) {
	next := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []scheduler.TaskStatus{
		{Name: "weekend_hype", Trigger: "weekly Sat 12:00", LastPeriod: "2024-W08", Next: next, Pending: true},
		{Name: "morning_greeting", Trigger: "daily 08:00"},
	}, time.UTC)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("output too short:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "TASK") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Sat 2024-03-02 12:00") || !strings.HasSuffix(lines[1], "due") {
		t.Errorf("weekend row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "never") {
		t.Errorf("never-run row = %q", lines[2])
	}
	if strings.Index(lines[1], "weekly") != strings.Index(lines[2], "daily") {
		t.Errorf("trigger column not aligned:\n%s\n%s", lines[1], lines[2])
	}
}

func TestParseAt(t *testing.T) {
	got, err := parseAt("2024-03-01T08:00:00Z")
	if err != nil || !got.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("parseAt = %v, %v", got, err)
	}
	if _, err := parseAt("tomorrow"); err == nil {
		t.Error("bad --at accepted")
	}
}

func TestParseOptionalInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{" -100123 ", -100123, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseOptionalInt(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseOptionalInt(%q) = %d, %v", tt.in, got, err)
		}
	}
}
