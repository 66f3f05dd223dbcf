package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobwatch/internal/aggregator"
	"github.com/MrSnakeDoc/jobwatch/internal/commands"
	"github.com/MrSnakeDoc/jobwatch/internal/config"
	"github.com/MrSnakeDoc/jobwatch/internal/filter"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver"
	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/metrics"
	"github.com/MrSnakeDoc/jobwatch/internal/notify"
	"github.com/MrSnakeDoc/jobwatch/internal/scheduler"
	"github.com/MrSnakeDoc/jobwatch/internal/utils"
	"github.com/MrSnakeDoc/jobwatch/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	telegram    *notify.Telegram
	blacklist   *commands.Blacklist
	scheduler   *scheduler.CycleScheduler
	collector   *scheduler.MarkerCollector
	ready       atomic.Bool
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	a := &App{cfg: cfg, logger: loggerClient}

	// Ledger first - a state backend that cannot be reached is fatal.
	store, redisClient, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open ledger: %v", err)
		os.Exit(1)
	}
	a.redisClient = redisClient

	sourceCfgs, err := loadSources(cfg)
	if err != nil {
		loggerClient.Errorf("Failed to load sources: %v", err)
		os.Exit(1)
	}
	if len(sourceCfgs) == 0 {
		loggerClient.Warn("no sources configured, cycles will find nothing")
	}

	bindings, err := buildBindings(cfg, sourceCfgs, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to build sources: %v", err)
		os.Exit(1)
	}

	m := metrics.New()

	agg := aggregator.New(aggregator.Options{
		Matcher:       filter.NewMatcher(cfg.IncludeKeywords, cfg.ExcludeKeywords, filter.ParseEmptyIncludeMode(cfg.EmptyInclude)),
		Concurrency:   cfg.SourceConcurrency,
		SourceTimeout: cfg.SourceTimeout,
	}, loggerClient.With(logger.String("component", "aggregator")))

	retry := notify.DefaultRetry
	retry.Attempts = cfg.NotifyAttempts
	retry.AttemptTimeout = cfg.NotifyTimeout

	var sink notify.Sink
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			Token:           cfg.TelegramToken,
			PostingsChatID:  cfg.PostingsChatID,
			CompaniesChatID: cfg.CompaniesChatID,
			OperatorChatID:  cfg.OperatorChatID,
			SendRate:        cfg.NotifyRate,
			HTTPTimeout:     cfg.NotifyTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to start Telegram sink: %v", err)
			os.Exit(1)
		}
		a.telegram = tg
		// Only Telegram is retried; the log copy is written once.
		sink = notify.Multi{
			notify.WithRetry(tg, retry, loggerClient),
			notify.NewLog(loggerClient.With(logger.String("component", "notify"))),
		}
	} else {
		loggerClient.Warn("JOBWATCH_TELEGRAM_TOKEN not set, notifications go to the log only")
		sink = notify.NewLog(loggerClient)
	}

	a.blacklist = commands.NewBlacklist(store, loggerClient.With(logger.String("component", "commands")))

	a.scheduler = scheduler.NewCycleScheduler(
		store,
		agg,
		bindings,
		sink,
		m,
		loggerClient.With(logger.String("component", "scheduler")),
		scheduler.CycleOptions{
			Interval:      cfg.CycleInterval,
			Retention:     cfg.Retention,
			NotifyTimeout: retry.Budget(),
			BlacklistFold: cfg.BlacklistFold,
		},
	)

	a.collector = scheduler.NewMarkerCollector(store, markerKeys(sourceCfgs), loggerClient, cfg.MarkerGCInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Scheduler:    a.scheduler,
		Blacklist:    a.blacklist,
		Metrics:      m,
		Ready:        a.ready.Load,
	}

	a.server = httpserver.New(cfg.ListenPort, loggerClient, d)

	return a
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Drop markers of sources that were removed from the config.
	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start marker collector: %w", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cycle scheduler: %w", err)
	}
	a.ready.Store(true)

	if a.telegram != nil {
		go a.telegram.Listen(ctx, a.handleCommand)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		stop()
		a.scheduler.Stop()
		return err
	}

	a.ready.Store(false)

	// A cycle in progress runs to completion; the loop exits before the next one.
	a.scheduler.Stop()
	a.collector.Stop()
	if err := a.scheduler.Wait(context.Background()); err != nil {
		a.logger.Warn("cycle scheduler did not stop", logger.Error(err))
	}
	a.logger.Info("cycle scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, a.logger, "redis")
		a.logger.Info("✅ Redis closed")
	}

	a.logger.Info("✅ jobwatch stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// handleCommand runs blacklist commands posted in one of the configured chats.
func (a *App) handleCommand(ctx context.Context, chatID int64, text string) string {
	switch chatID {
	case a.cfg.PostingsChatID, a.cfg.CompaniesChatID, a.cfg.OperatorChatID:
	default:
		a.logger.Debug("ignoring message from unknown chat", logger.Int("chat_id", int(chatID)))
		return ""
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.blacklist.Handle(cctx, chatID, text)
}
