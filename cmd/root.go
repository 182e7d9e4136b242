package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/npepeverse/pepebot/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/npepeverse/pepebot/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile   string
	envFile   string
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pepebot",
	Short: "pepebot - meme coin community bot for Telegram",
	Long: "pepebot answers project questions in a Telegram community, keeps the group free of spam, " +
		"and posts scheduled greetings. Running it without a subcommand starts the webhook server.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return config.LoadDotEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveOptions{registerWebhook: true})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json or $PEPEBOT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(webhookCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(onboardCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pepebot %s\n", Version)
		},
	}
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	var h slog.Handler
	if strings.EqualFold(logFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("PEPEBOT_CONFIG"); v != "" {
		return v
	}
	return "config.json"
}

// loadConfig reads the config file and env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
