package app

import (
	"context"
	"time"

	"github.com/mkrutov/pricebot/internal/cache"
	"github.com/mkrutov/pricebot/internal/config"
	"github.com/mkrutov/pricebot/internal/delivery/telegram"
	"github.com/mkrutov/pricebot/internal/infra/binance"
	"github.com/mkrutov/pricebot/internal/infra/coingecko"
	"github.com/mkrutov/pricebot/internal/infra/db"
	"github.com/mkrutov/pricebot/internal/infra/log"
	"github.com/mkrutov/pricebot/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg       config.Config
	bot       *telegram.Bot
	monitor   *usecase.Monitor
	store     *cache.Cache
	stream    *binance.Stream
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(dbConn)
	portfolioRepo := db.NewPortfolioRepository(dbConn)
	triggerRepo := db.NewTriggerLogRepository(dbConn)

	store := cache.New(logger)
	gecko := coingecko.NewClient(coingecko.Options{
		BaseURL:           cfg.CoinGeckoBaseURL,
		APIKey:            cfg.CoinGeckoAPIKey,
		Timeout:           cfg.CoinGeckoTimeout,
		MinRequestSpacing: cfg.UpstreamMinSpacing,
		CoinIDTTL:         cfg.CoinIDCacheTTL,
	}, store, logger)

	quotes := usecase.NewQuoteService(store, gecko, cfg.QuoteCacheTTL, logger)
	alerts := usecase.NewAlertStore(store, quotes, logger)
	userUC := usecase.NewUserUsecase(userRepo)
	portfolioUC := usecase.NewPortfolioUsecase(userRepo, portfolioRepo, quotes, logger)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}

	notifier := telegram.NewNotifier(api, logger)
	monitor := usecase.NewMonitor(usecase.MonitorConfig{
		Interval:      cfg.MonitorInterval,
		FetchLimit:    cfg.MonitorFetchLimit,
		FetchTimeout:  cfg.MonitorFetchTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	}, alerts, quotes, notifier, triggerRepo, logger)

	handlers := telegram.NewHandlers(userUC, alerts, portfolioUC, quotes, triggerRepo, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)

	var stream *binance.Stream
	if cfg.BinanceStreamEnabled {
		stream = binance.NewStream(cfg.BinanceStreamURL, cfg.BinanceReadTimeout, alerts, quotes, logger)
	}

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		cfg:       cfg,
		bot:       bot,
		monitor:   monitor,
		store:     store,
		stream:    stream,
		logger:    logger,
		cleanupFn: cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pricebot starting")

	a.store.StartJanitor(ctx, a.cfg.CacheJanitorInterval)
	a.monitor.Start(ctx)
	if a.stream != nil {
		go a.stream.Run(ctx)
	}

	a.logger.Info("pricebot started")
	return a.bot.Start(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("pricebot shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.monitor.Stop(stopCtx); err != nil {
		a.logger.Warn("monitor did not stop cleanly", zap.Error(err))
	}

	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
