package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/npepeverse/pepebot/internal/broadcast"
	"github.com/npepeverse/pepebot/internal/channels/telegram"
	"github.com/npepeverse/pepebot/internal/config"
	"github.com/npepeverse/pepebot/internal/llm"
	"github.com/npepeverse/pepebot/internal/moderation"
	"github.com/npepeverse/pepebot/internal/responses"
	"github.com/npepeverse/pepebot/internal/router"
	"github.com/npepeverse/pepebot/internal/scheduler"
	"github.com/npepeverse/pepebot/internal/store"
	"github.com/npepeverse/pepebot/internal/store/file"
	"github.com/npepeverse/pepebot/internal/store/pg"
	"github.com/npepeverse/pepebot/internal/store/sqlite"
)

// app is the wired bot shared by serve, tick and tasks.
type app struct {
	cfg    *config.Config
	store  store.RunStore
	table  *responses.Table
	client *telegram.Client
	router *router.Router
	sched  *scheduler.Scheduler
}

// buildApp wires every component from cfg. The caller must Close the result.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	table := responses.NewTable(cfg.Project)
	if path := cfg.Responses.OverridesPath; path != "" {
		if err := table.LoadOverrides(config.ExpandHome(path)); err != nil {
			return nil, fmt.Errorf("response overrides: %w", err)
		}
		slog.Info("response overrides loaded", "path", path)
	}

	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := telegram.New(cfg.Telegram, cfg.TelegramTimeout(), telegram.MainMenu(cfg.Project))
	if err != nil {
		return nil, err
	}

	rs, err := openRunStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	opts := router.Options{
		Table:            table,
		Messenger:        client,
		OwnerID:          cfg.Telegram.OwnerID,
		ModerateAllChats: cfg.Moderation.AllChats,
		Persona:          cfg.LLM.SystemPrompt,
		ThinkingText:     cfg.LLM.ThinkingText,
		Interjector: router.NewInterjector(
			cfg.InterjectionCooldown(),
			cfg.Interjection.BaseChance,
			cfg.Interjection.HypeChance,
			cfg.Interjection.HypeKeywords,
		),
	}
	if cfg.Moderation.IsEnabled() {
		opts.Filter = moderation.NewFilter(cfg.Moderation, cfg.Project)
		opts.Admins = moderation.NewAdminCache(client.Admins, cfg.AdminCacheTTL())
	}
	if completer != nil {
		opts.LLM = completer
	}

	warnUnknownTasks(cfg.Schedule.Disabled)
	deps := broadcast.Deps{
		Table:          table,
		Messenger:      client,
		ChatID:         cfg.Telegram.GroupChatID,
		RefreshContent: cfg.LLM.ContentRefreshEnabled(),
		Disabled:       cfg.Schedule.Disabled,
	}
	if completer != nil {
		deps.LLM = completer
	}
	if deps.ChatID == 0 {
		slog.Warn("GROUP_CHAT_ID not set: scheduled posts will fail until it is configured")
	}

	sched, err := scheduler.New(rs, cfg.Location(), broadcast.Tasks(deps))
	if err != nil {
		rs.Close()
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	return &app{
		cfg:    cfg,
		store:  rs,
		table:  table,
		client: client,
		router: router.New(opts),
		sched:  sched,
	}, nil
}

// Close releases the run store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("close run store", "error", err)
	}
}

// buildCompleter returns nil without error when no LLM key is configured.
func buildCompleter(ctx context.Context, cfg *config.Config) (*llm.Completer, error) {
	p, err := llm.New(ctx, cfg.LLM)
	if errors.Is(err, llm.ErrNotConfigured) {
		slog.Warn("no LLM configured: open questions get canned answers", "reason", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	slog.Info("llm enabled", "provider", p.Name(), "model", firstNonEmpty(cfg.LLM.Model, p.DefaultModel()))
	return llm.NewCompleter(p, cfg.LLM.Model, cfg.LLMTimeout(), cfg.LLM.MaxTokens), nil
}

// openRunStore picks the run-record backend named by the database config.
func openRunStore(db config.DatabaseConfig) (store.RunStore, error) {
	kind := db.Kind()
	var (
		rs  store.RunStore
		err error
	)
	switch kind {
	case "file":
		rs, err = file.NewRunStore(config.ExpandHome(db.FilePath))
	case "sqlite":
		rs, err = sqlite.NewRunStore(config.ExpandHome(db.SQLitePath))
	case "postgres":
		rs, err = pg.Open(db.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown database backend %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s run store: %w", kind, err)
	}
	slog.Info("run store ready", "backend", kind)
	return rs, nil
}

func warnUnknownTasks(disabled []string) {
	known := broadcast.Names()
	for _, name := range disabled {
		if !slices.Contains(known, broadcast.NormalizeName(name)) {
			slog.Warn("schedule.disabled names an unknown task", "task", name, "known", known)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
