// Package main implements the articleschat server and CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ArticlesChat/internal/app"
	"ArticlesChat/internal/config"
	"ArticlesChat/internal/logging"
)

var (
	// configPath overrides ARTICLES_CHAT_CONFIG
	configPath string
	// corpusPath overrides corpus.path
	corpusPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "articleschat",
	Short: "Chat with a local article collection",
	Long: `articleschat answers questions about a JSON article collection.
Each question is matched against the collection by a ranking model and answered
by a second model from the full text of the matching articles.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: $ARTICLES_CHAT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "article JSON document (overrides corpus.path)")
	rootCmd.AddCommand(serveCmd)
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	Long: `Serve POST /api/chat, GET /api/articles, GET /metrics and GET /healthz.

Examples:
  # Serve with defaults and an API key from the environment
  OPENAI_API_KEY=sk-... articleschat serve

  # Serve with a config file
  articleschat serve --config configs/articleschat.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	logger.Info("application stopped")
	return nil
}

func loadConfig() config.Config {
	var cfg config.Config
	if configPath != "" {
		cfg = config.LoadFile(configPath)
	} else {
		cfg = config.Load()
	}
	if corpusPath != "" {
		cfg.Corpus.Path = corpusPath
	}
	return cfg
}

// commandContext gives one-shot commands a context that is cancelled on Ctrl-C.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

// cliLogger writes to stderr so stdout stays clean for command output.
func cliLogger(cfg config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.Logging.Format)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
