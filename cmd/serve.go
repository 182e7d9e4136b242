package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/npepeverse/pepebot/internal/config"
	"github.com/npepeverse/pepebot/internal/gateway"
	"github.com/npepeverse/pepebot/internal/tracing"
)

type serveOptions struct {
	registerWebhook bool
}

func serveCmd() *cobra.Command {
	opts := serveOptions{registerWebhook: true}
	var noWebhook bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.registerWebhook = !noWebhook
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&noWebhook, "no-webhook", false, "skip webhook registration at startup")
	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.registerWebhook {
		if err := a.client.RegisterWebhook(ctx, cfg.WebhookURL(), cfg.Telegram.WebhookSecret); err != nil {
			slog.Error("webhook registration failed", "error", err)
		}
		if err := a.client.SyncMenuCommands(ctx); err != nil {
			slog.Warn("menu commands not updated", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("graceful shutdown initiated", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("pepebot starting",
		"version", Version,
		"project", cfg.Project.Name,
		"timezone", a.sched.Location().String(),
		"tasks", len(a.sched.Tasks()),
		"moderation", cfg.Moderation.IsEnabled(),
	)

	// All loops below must return before the deferred a.Close.
	g, gctx := errgroup.WithContext(ctx)
	if path := cfg.Responses.OverridesPath; path != "" && cfg.Responses.Watch {
		g.Go(func() error {
			if err := a.table.Watch(gctx, config.ExpandHome(path)); err != nil {
				slog.Warn("response overrides watcher stopped", "error", err)
			}
			return nil
		})
	}
	if cfg.Schedule.TimerMode {
		slog.Info("scheduler timer mode enabled", "max_sleep", cfg.TimerMaxSleep())
		g.Go(func() error {
			a.sched.Run(gctx, cfg.TimerMaxSleep())
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return gateway.NewServer(cfg, a.sched, a.router).Start(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("gateway error", "error", err)
		return err
	}
	slog.Info("pepebot stopped")
	return nil
}
