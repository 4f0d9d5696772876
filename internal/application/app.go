package application

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/newsbot/cryptonews/internal/application/controller"
	"github.com/newsbot/cryptonews/internal/application/runner"
	"github.com/newsbot/cryptonews/internal/application/scheduler"
	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/internal/infrastructure/analyzer"
	"github.com/newsbot/cryptonews/internal/infrastructure/category"
	"github.com/newsbot/cryptonews/internal/infrastructure/config"
	"github.com/newsbot/cryptonews/internal/infrastructure/fetchers"
	"github.com/newsbot/cryptonews/internal/infrastructure/llm"
	_ "github.com/newsbot/cryptonews/internal/infrastructure/llm/anthropic"
	_ "github.com/newsbot/cryptonews/internal/infrastructure/llm/openai"
	"github.com/newsbot/cryptonews/internal/infrastructure/persistence"
	"github.com/newsbot/cryptonews/internal/infrastructure/prompt"
	"github.com/newsbot/cryptonews/internal/infrastructure/renderer"
	"github.com/newsbot/cryptonews/internal/infrastructure/snapshot"
	"github.com/newsbot/cryptonews/internal/infrastructure/structuredoutput"
	"github.com/newsbot/cryptonews/internal/interfaces/telegram"
	"github.com/newsbot/cryptonews/pkg/safego"
)

const (
	analysisContextTokens = 32000
	retentionSweepPeriod  = 24 * time.Hour
)

// App is the dependency-injection container wiring every component from
// SPEC_FULL.md §0 into a runnable pipeline.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB

	repo       service.Repository
	categories service.CategoryRegistry
	prompts    service.PromptAssembler
	snapshots  service.MarketSnapshotService
	structured service.StructuredOutputClient
	analyzerS  service.LLMAnalyzer
	rendererS  service.ReportRenderer
	fetcherS   []service.ContentFetcher

	bot      *tgbotapi.BotAPI
	delivery service.TelegramDelivery
	listener *telegram.Listener

	runnerS    service.PipelineRunner
	controller *controller.Controller
	schedulerS *scheduler.Scheduler
}

// NewApp constructs and wires the full application, performing
// first-run bootstrap of ~/.newsbot before reading anything else.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := config.Bootstrap(logger); err != nil {
		logger.Warn("bootstrap failed (non-fatal)", zap.Error(err))
	}

	app := &App{config: cfg, logger: logger}

	if err := app.initPersistence(); err != nil {
		return nil, fmt.Errorf("init persistence: %w", err)
	}
	if err := app.initLLM(); err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	if err := app.initAnalysisPipeline(); err != nil {
		return nil, fmt.Errorf("init analysis pipeline: %w", err)
	}
	if err := app.initFetchers(); err != nil {
		return nil, fmt.Errorf("init fetchers: %w", err)
	}
	if err := app.initTelegram(); err != nil {
		return nil, fmt.Errorf("init telegram: %w", err)
	}
	app.initController()

	return app, nil
}

func (app *App) initPersistence() error {
	db, err := persistence.NewDBConnection(&app.config.Storage)
	if err != nil {
		return err
	}
	app.db = db
	app.repo = persistence.NewRepository(db)
	return nil
}

func (app *App) initLLM() error {
	promptPath := config.AnalysisPromptPath()
	categories, err := category.LoadFromPrompt(promptPath)
	if err != nil {
		return fmt.Errorf("load category registry: %w", err)
	}
	app.categories = categories
	app.prompts = prompt.NewAssembler(promptPath)

	snapshotProvider, err := app.createProvider(app.config.LLM.Provider, app.config.MarketSnapshot.Endpoint, app.config.MarketSnapshot.APIKeyEnv)
	if err != nil {
		return fmt.Errorf("create market snapshot provider: %w", err)
	}
	ttl := time.Duration(app.config.MarketSnapshot.TTLMinutes) * time.Minute
	app.snapshots = snapshot.NewService(snapshotProvider, app.config.MarketSnapshot.Model, ttl, app.logger)

	analysisProvider, err := app.createProvider(app.config.LLM.Provider, app.config.LLM.Endpoint, app.config.LLM.APIKeyEnv)
	if err != nil {
		return fmt.Errorf("create structured output provider: %w", err)
	}
	app.structured = structuredoutput.NewClient(analysisProvider, app.config.LLM.Model, analysisContextTokens, app.logger)

	return nil
}

const (
	providerFailureThreshold = 5
	providerRecoveryTimeout  = 30 * time.Second
)

func (app *App) createProvider(providerType, endpoint, apiKeyEnv string) (service.LLMClient, error) {
	apiKey, err := config.ResolveSecret(apiKeyEnv)
	if err != nil {
		return nil, err
	}
	provider, err := llm.CreateProvider(llm.ProviderConfig{
		Type:    providerType,
		BaseURL: endpoint,
		APIKey:  apiKey,
	}, app.logger)
	if err != nil {
		return nil, err
	}

	breaker := llm.NewCircuitBreaker(providerFailureThreshold, providerRecoveryTimeout)
	return llm.NewBreakerClient(provider.Name(), provider, breaker), nil
}

func (app *App) initAnalysisPipeline() error {
	app.analyzerS = analyzer.New(app.snapshots, app.prompts, app.structured, app.categories, app.config.LLM.BatchSize, app.config.LLM.MaxBatchParallelism, app.logger)
	app.rendererS = renderer.New()
	return nil
}

func (app *App) initFetchers() error {
	for _, fc := range app.config.Fetchers {
		switch fc.Type {
		case "rss":
			app.fetcherS = append(app.fetcherS, fetchers.NewRSSFetcher(fc.Name, fc.URLs, app.logger))
		case "x":
			cookie, _ := config.ResolveSecret(fc.CookieEnv)
			app.fetcherS = append(app.fetcherS, fetchers.NewXFetcher(fc.Name, fc.Command, fc.Query, cookie, app.logger))
		default:
			app.logger.Warn("unknown fetcher type, skipping", zap.String("type", fc.Type), zap.String("name", fc.Name))
		}
	}
	return nil
}

func (app *App) initTelegram() error {
	token, err := config.ResolveSecret(app.config.Telegram.BotTokenEnv)
	if err != nil {
		return err
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	app.bot = bot
	app.delivery = telegram.NewDelivery(bot, app.config.Telegram.ParseMode, app.logger)

	if app.config.TelegramCommands.Enabled {
		app.listener = telegram.NewListener(bot, nil, app.repo, app.config.TelegramCommands, app.logger)
	}
	return nil
}

func (app *App) initController() {
	chatID := parseChatID(app.config.Telegram.ChatID)
	window := time.Duration(app.config.TimeWindowHours) * time.Hour

	app.runnerS = runner.New(app.fetcherS, app.repo, app.analyzerS, app.rendererS, app.categories, app.delivery, chatID, window, app.logger)
	app.controller = controller.New(app.runnerS, app.repo, app.config.ExecutionTimeout(), app.logger)

	// the listener was constructed before the controller existed; rewire it now.
	if app.listener != nil {
		app.listener = telegram.NewListener(app.bot, app.controller, app.repo, app.config.TelegramCommands, app.logger)
	}

	interval := time.Duration(app.config.ExecutionIntervalSeconds) * time.Second
	app.schedulerS = scheduler.New(app.controller, interval, true, app.logger)
}

func parseChatID(raw string) int64 {
	var id int64
	_, _ = fmt.Sscanf(raw, "%d", &id)
	return id
}

// RunOnce triggers a single synchronous pipeline run and waits for it to
// reach a terminal state, returning an error if it did not succeed.
func (app *App) RunOnce(ctx context.Context) error {
	outcome := app.controller.Trigger(entity.TriggerManual)
	if outcome.Busy {
		return fmt.Errorf("execution controller busy")
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			run := app.controller.Status()
			if run.IsTerminal() {
				if run.State == entity.RunSucceeded {
					return nil
				}
				return fmt.Errorf("run %s: %s", run.State, run.Error)
			}
		}
	}
}

// Start launches the scheduler and the Telegram command listener, both
// sharing the single ExecutionController, and starts the retention
// sweep maintenance loop.
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("starting application")

	app.schedulerS.Start()
	if app.listener != nil {
		app.listener.Start()
	}
	safego.Go(app.logger, "retention-sweep-loop", func() { app.retentionSweepLoop(ctx) })

	return nil
}

// Stop performs a graceful shutdown: stop scheduling, drain the command
// listener, then close the database connection.
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("stopping application")

	app.schedulerS.Stop()
	if app.listener != nil {
		app.listener.Stop()
	}

	if app.db != nil {
		sqlDB, err := app.db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}

	app.logger.Info("application stopped")
	return nil
}

func (app *App) retentionSweepLoop(ctx context.Context) {
	sweep := func() {
		if err := app.repo.DeleteOlderThan(ctx, app.config.Storage.RetentionDays); err != nil {
			app.logger.Warn("retention sweep failed", zap.Error(err))
		}
	}
	sweep()

	ticker := time.NewTicker(retentionSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// Logger returns the application logger.
func (app *App) Logger() *zap.Logger { return app.logger }

// AppConfig returns the application config.
func (app *App) AppConfig() *config.Config { return app.config }
