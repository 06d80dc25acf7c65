package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"liqcalc/internal/api"
	"liqcalc/internal/config"
	"liqcalc/internal/engine"
	"liqcalc/internal/marketdata"
	"liqcalc/internal/models"
	"liqcalc/internal/repository"
	"liqcalc/internal/service"
	"liqcalc/internal/websocket"
	"liqcalc/pkg/utils"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// База данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()
	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	positionRepo := repository.NewPositionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Источник рыночных данных
	clientCfg := marketdata.DefaultClientConfig(cfg.MarketData.BaseURL)
	clientCfg.APIKey = cfg.MarketData.APIKey
	clientCfg.RateLimit = cfg.MarketData.RateLimit
	clientCfg.RateBurst = cfg.MarketData.RateBurst
	mdClient := marketdata.NewClient(clientCfg, logger)
	defer mdClient.Close()

	priceSource := marketdata.NewPriceSource(mdClient)
	paramsCache := marketdata.NewParamsCache(
		marketdata.NewParamsSource(mdClient),
		marketdata.ParamsCacheConfig{TTL: cfg.MarketData.ParamsTTL},
		logger,
	)

	quoteBook := engine.NewQuoteBook(0)

	// WebSocket hub для пушей в браузер
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Сервисы
	riskService := service.NewRiskService(settingsRepo, paramsCache, quoteBook, logger)
	positionService := service.NewPositionService(positionRepo, logger)
	settingsService := service.NewSettingsService(settingsRepo, riskService, logger)
	notificationService := service.NewNotificationService(notificationRepo, settingsRepo, logger)

	symbols := make([]string, 0)
	for _, m := range riskService.Markets() {
		symbols = append(symbols, m.Symbol)
	}

	// Периодическое обновление параметров ликвидности
	go paramsCache.Run(ctx, cfg.MarketData.ParamsRefreshInterval, func() {
		hub.BroadcastParamsUpdate(len(symbols))
	})

	// Котировки: WebSocket поток + REST fallback
	onQuote := func(q models.Quote) {
		quoteBook.Update(q)
		hub.BroadcastQuote(q)
	}

	var stream *marketdata.PriceStream
	if cfg.MarketData.WSURL != "" {
		stream = marketdata.NewPriceStream(marketdata.DefaultStreamConfig(cfg.MarketData.WSURL), onQuote, logger)
		if err := stream.Subscribe(symbols); err != nil {
			logger.Warn("stream subscribe failed", utils.Err(err))
		}
		if err := stream.Connect(); err != nil {
			// Не фатально: REST-опрос ниже держит котировки живыми,
			// стрим переподключится при следующем разрыве
			logger.Warn("quote stream connect failed, falling back to REST polling", utils.Err(err))
		}
		defer stream.Close()
	}
	go pollQuotes(ctx, priceSource, stream, symbols, onQuote, cfg.Monitor.CheckInterval, logger)

	// Монитор риска
	notifChan := make(chan *models.Notification, 64)
	monitor := engine.NewRiskMonitor(
		quoteBook,
		func(ctx context.Context) ([]models.WatchedPosition, error) {
			active, err := positionRepo.GetActive()
			if err != nil {
				return nil, err
			}
			out := make([]models.WatchedPosition, 0, len(active))
			for _, wp := range active {
				out = append(out, *wp)
			}
			return out, nil
		},
		riskService.EvaluateWatched,
		notifChan,
		hub.BroadcastRiskUpdate,
		engine.MonitorConfig{
			CheckInterval: cfg.Monitor.CheckInterval,
			QuoteMaxAge:   cfg.Monitor.QuoteMaxAge,
		},
	)
	go monitor.Start(ctx)
	go notificationService.Run(ctx, notifChan, hub.BroadcastNotification)

	// HTTP API
	deps := &api.Dependencies{
		RiskService:         riskService,
		PositionService:     positionService,
		SettingsService:     settingsService,
		NotificationService: notificationService,
		Quotes:              quoteBook,
		StreamHandler:       websocket.NewHandler(hub, cfg.Security.AllowedOrigins, logger),
		HealthChecks:        healthChecks(db, stream),
		APITokenHash:        cfg.Security.APITokenHash,
		AllowedOrigins:      cfg.Security.AllowedOrigins,
		DebugUsername:       cfg.Security.DebugUsername,
		DebugPassword:       cfg.Security.DebugPassword,
		Logger:              logger,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", utils.Err(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", utils.Err(err))
	}

	monitor.Stop()
	hub.Stop()

	logger.Info("server exited")
}

// pollQuotes опрашивает REST источник, пока WebSocket поток не подключён.
// Единственный писатель котировок при отсутствии стрима.
func pollQuotes(
	ctx context.Context,
	source *marketdata.PriceSource,
	stream *marketdata.PriceStream,
	symbols []string,
	onQuote func(models.Quote),
	interval time.Duration,
	logger *utils.Logger,
) {
	log := logger.WithComponent("quote_poller")

	poll := func() {
		if stream != nil && stream.IsConnected() {
			return
		}
		fetchCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		quotes, err := source.FetchPrices(fetchCtx, symbols)
		if err != nil {
			log.Warn("price poll failed", utils.Err(err))
			return
		}
		for _, q := range quotes {
			onQuote(q)
		}
	}

	// Первый опрос сразу: монитору нужны котировки до первого tick'а
	poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

// healthChecks собирает именованные проверки для /healthz
func healthChecks(db *sql.DB, stream *marketdata.PriceStream) map[string]func() error {
	checks := map[string]func() error{
		"database": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
	}
	if stream != nil {
		checks["quote_stream"] = func() error {
			if !stream.IsConnected() {
				return fmt.Errorf("quote stream %s", stream.State())
			}
			return nil
		}
	}
	return checks
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
