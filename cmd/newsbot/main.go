package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/application"
	"github.com/newsbot/cryptonews/internal/infrastructure/config"
	"github.com/newsbot/cryptonews/internal/infrastructure/logger"
)

const (
	appName    = "newsbot"
	appVersion = "0.1.0"
)

const (
	exitSuccess          = 0
	exitRuntimeFailure   = 1
	exitValidationFailed = 2
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Crypto-news intelligence pipeline",
		Long:  "newsbot ingests RSS/X content, enriches it with a market snapshot, classifies and scores it via a structured-output LLM call, and delivers a Markdown report to Telegram.",
	}

	var mode string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once or start the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(mode)
		},
	}
	runCmd.Flags().StringVar(&mode, "mode", "once", "once | schedule")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and check external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitRuntimeFailure)
	}
}

func runPipeline(mode string) error {
	log, err := logger.NewLogger(logger.Config{
		Level:      "info",
		Format:     "json",
		OutputPath: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(exitValidationFailed)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", zap.Error(err))
		os.Exit(exitValidationFailed)
	}

	app, err := application.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", zap.Error(err))
		os.Exit(exitValidationFailed)
	}

	switch mode {
	case "once":
		return runOnce(app, log)
	case "schedule":
		return runSchedule(app, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown --mode %q, want once|schedule\n", mode)
		os.Exit(exitValidationFailed)
		return nil
	}
}

func runOnce(app *application.App, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Warn("received signal during single run, cancelling", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := app.RunOnce(ctx); err != nil {
		log.Error("pipeline run failed", zap.Error(err))
		os.Exit(exitRuntimeFailure)
	}

	log.Info("pipeline run succeeded")
	return nil
}

func runSchedule(app *application.App, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Error("failed to start application", zap.Error(err))
		os.Exit(exitRuntimeFailure)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		os.Exit(exitRuntimeFailure)
	}

	log.Info("application stopped successfully")
	return nil
}

func runDoctor() error {
	fmt.Printf("newsbot doctor v%s\n\n", appVersion)

	checks := []struct {
		name  string
		check func() (string, bool)
	}{
		{"config file", checkConfigFile},
		{"LLM API key", checkSecretEnv("llm.api_key_env", func(c *config.Config) string { return c.LLM.APIKeyEnv })},
		{"market snapshot API key", checkSecretEnv("market_snapshot.api_key_env", func(c *config.Config) string { return c.MarketSnapshot.APIKeyEnv })},
		{"Telegram bot token", checkSecretEnv("telegram.bot_token_env", func(c *config.Config) string { return c.Telegram.BotTokenEnv })},
		{"Telegram chat ID", checkTelegramChatID},
		{"fetchers configured", checkFetchers},
	}

	allOK := true
	for _, c := range checks {
		val, ok := c.check()
		icon := "✓"
		if !ok {
			icon = "✗"
			allOK = false
		}
		fmt.Printf("  [%s] %s: %s\n", icon, c.name, val)
	}

	fmt.Println()
	if allOK {
		fmt.Println("all checks passed")
		return nil
	}
	fmt.Println("one or more checks failed, see above")
	os.Exit(exitValidationFailed)
	return nil
}

func checkConfigFile() (string, bool) {
	path := config.HomeDir() + "/config.yaml"
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	return "not found, run 'newsbot run' once to bootstrap " + config.HomeDir(), false
}

func checkSecretEnv(label string, field func(*config.Config) string) func() (string, bool) {
	return func() (string, bool) {
		cfg, err := config.Load()
		if err != nil {
			return "config load failed: " + err.Error(), false
		}
		envKey := field(cfg)
		if envKey == "" {
			return label + " not configured", false
		}
		if _, err := config.ResolveSecret(envKey); err != nil {
			return envKey + " is unset", false
		}
		return envKey + " is set", true
	}
}

func checkTelegramChatID() (string, bool) {
	cfg, err := config.Load()
	if err != nil {
		return "config load failed: " + err.Error(), false
	}
	if cfg.Telegram.ChatID == "" {
		return "telegram.chat_id is empty", false
	}
	return cfg.Telegram.ChatID, true
}

func checkFetchers() (string, bool) {
	cfg, err := config.Load()
	if err != nil {
		return "config load failed: " + err.Error(), false
	}
	if len(cfg.Fetchers) == 0 {
		return "no fetchers configured", false
	}
	return fmt.Sprintf("%d configured", len(cfg.Fetchers)), true
}
