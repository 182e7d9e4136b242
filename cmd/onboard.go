package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/npepeverse/pepebot/internal/config"
)

// onboardAnswers are the values collected by the setup wizard.
type onboardAnswers struct {
	ProjectName     string
	Ticker          string
	ContractAddress string

	BotToken      string
	WebhookBase   string
	WebhookSecret string
	GroupChatID   string
	OwnerID       string

	LLMProvider string
	LLMAPIKey   string

	Backend  string
	Timezone string
	Moderate bool
}

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard: writes config.json and .env",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard()
		},
	}
}

func runOnboard() error {
	cfgPath := resolveConfigPath()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ans := answersFrom(cfg)
	if err := onboardForm(&ans).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Setup cancelled.")
			return nil
		}
		return fmt.Errorf("onboard: %w", err)
	}

	secrets, err := applyAnswers(cfg, ans)
	if err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := mergeEnvFile(envFile, secrets); err != nil {
		return fmt.Errorf("write %s: %w", envFile, err)
	}

	fmt.Println()
	fmt.Printf("Config written to %s, secrets to %s.\n", cfgPath, envFile)
	fmt.Println("Start the bot with:  ./pepebot")
	return nil
}

// answersFrom pre-fills the wizard from the current config and environment.
func answersFrom(cfg *config.Config) onboardAnswers {
	a := onboardAnswers{
		ProjectName:     cfg.Project.Name,
		Ticker:          cfg.Project.Ticker,
		ContractAddress: cfg.Project.ContractAddress,
		BotToken:        cfg.Telegram.Token,
		WebhookBase:     cfg.Telegram.WebhookBaseURL,
		WebhookSecret:   cfg.Telegram.WebhookSecret,
		LLMProvider:     strings.ToLower(cfg.LLM.Provider),
		Backend:         cfg.Database.Kind(),
		Timezone:        cfg.Schedule.Timezone,
		Moderate:        cfg.Moderation.IsEnabled(),
	}
	if cfg.Telegram.GroupChatID != 0 {
		a.GroupChatID = strconv.FormatInt(cfg.Telegram.GroupChatID, 10)
	}
	if cfg.Telegram.OwnerID != 0 {
		a.OwnerID = strconv.FormatInt(cfg.Telegram.OwnerID, 10)
	}
	return a
}

func onboardForm(a *onboardAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("pepebot setup").Description("Project facts used in replies and posts."),
			huh.NewInput().Title("Project name").Value(&a.ProjectName).Validate(required("project name")),
			huh.NewInput().Title("Ticker").Placeholder("$NPEPE").Value(&a.Ticker).Validate(required("ticker")),
			huh.NewInput().Title("Contract address").Value(&a.ContractAddress).Validate(required("contract address")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Bot token").Description("From @BotFather").
				EchoMode(huh.EchoModePassword).Value(&a.BotToken).Validate(required("bot token")),
			huh.NewInput().Title("Public base URL").Placeholder("https://bot.example.com").
				Value(&a.WebhookBase).Validate(validBaseURL),
			huh.NewInput().Title("Webhook secret (optional)").EchoMode(huh.EchoModePassword).Value(&a.WebhookSecret),
			huh.NewInput().Title("Group chat id").Description("Target of scheduled posts").
				Value(&a.GroupChatID).Validate(optionalInt),
			huh.NewInput().Title("Owner user id (optional)").Value(&a.OwnerID).Validate(optionalInt),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("LLM provider").
				Options(
					huh.NewOption("None (canned answers only)", ""),
					huh.NewOption("Groq", "groq"),
					huh.NewOption("Gemini", "gemini"),
					huh.NewOption("OpenAI", "openai"),
				).
				Value(&a.LLMProvider),
		),
		huh.NewGroup(
			huh.NewInput().Title("LLM API key").EchoMode(huh.EchoModePassword).
				Value(&a.LLMAPIKey).Validate(required("API key")),
		).WithHideFunc(func() bool { return a.LLMProvider == "" }),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Run-record storage").
				Options(
					huh.NewOption("JSON file", "file"),
					huh.NewOption("SQLite", "sqlite"),
					huh.NewOption("Postgres (DATABASE_URL)", "postgres"),
				).
				Value(&a.Backend),
			huh.NewInput().Title("Schedule timezone").Placeholder("UTC").Value(&a.Timezone),
			huh.NewConfirm().Title("Delete spam in groups?").Value(&a.Moderate),
		),
	)
}

// applyAnswers copies the non-secret answers into cfg and returns the secrets
// destined for the env file.
func applyAnswers(cfg *config.Config, a onboardAnswers) (map[string]string, error) {
	cfg.Project.Name = strings.TrimSpace(a.ProjectName)
	cfg.Project.Ticker = strings.TrimSpace(a.Ticker)
	cfg.Project.ContractAddress = strings.TrimSpace(a.ContractAddress)
	cfg.Telegram.WebhookBaseURL = strings.TrimRight(strings.TrimSpace(a.WebhookBase), "/")
	cfg.LLM.Provider = a.LLMProvider
	cfg.Database.Backend = a.Backend
	if tz := strings.TrimSpace(a.Timezone); tz != "" {
		cfg.Schedule.Timezone = tz
	}
	moderate := a.Moderate
	cfg.Moderation.Enabled = &moderate

	var err error
	if cfg.Telegram.GroupChatID, err = parseOptionalInt(a.GroupChatID); err != nil {
		return nil, fmt.Errorf("group chat id: %w", err)
	}
	if cfg.Telegram.OwnerID, err = parseOptionalInt(a.OwnerID); err != nil {
		return nil, fmt.Errorf("owner id: %w", err)
	}

	secrets := map[string]string{"BOT_TOKEN": strings.TrimSpace(a.BotToken)}
	if a.WebhookSecret != "" {
		secrets["WEBHOOK_SECRET"] = a.WebhookSecret
	}
	if key := strings.TrimSpace(a.LLMAPIKey); key != "" {
		switch a.LLMProvider {
		case "groq":
			secrets["GROQ_API_KEY"] = key
		case "gemini":
			secrets["GEMINI_API_KEY"] = key
		case "openai":
			secrets["OPENAI_API_KEY"] = key
		}
	}
	return secrets, nil
}

// mergeEnvFile overlays values onto an existing dotenv file, keeping other keys.
func mergeEnvFile(path string, values map[string]string) error {
	if path == "" {
		path = ".env"
	}
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return err
		}
		env = existing
	}
	for k, v := range values {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return err
	}
	return os.Chmod(path, 0600)
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("public base URL is required")
	}
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return errors.New("must start with https://")
	}
	return nil
}

func optionalInt(s string) error {
	_, err := parseOptionalInt(s)
	return err
}

func parseOptionalInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}
