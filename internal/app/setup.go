package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/discovery"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/orderbook"
	"github.com/mselser95/polymarket-insights/internal/publisher"
	"github.com/mselser95/polymarket-insights/internal/scanner"
	"github.com/mselser95/polymarket-insights/internal/sizing"
	"github.com/mselser95/polymarket-insights/internal/storage"
	"github.com/mselser95/polymarket-insights/pkg/cache"
	"github.com/mselser95/polymarket-insights/pkg/config"
	"github.com/mselser95/polymarket-insights/pkg/healthprobe"
	"github.com/mselser95/polymarket-insights/pkg/httpserver"
	"github.com/mselser95/polymarket-insights/pkg/websocket"
)

// New creates a new application instance. External connections (Postgres,
// Redis, the CLOB market channel) are opened and checked here so a bad
// configuration fails fast.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	resultCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	resultStorage, err := setupStorage(ctx, cfg, logger, healthChecker)
	if err != nil {
		resultCache.Close()
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	signalPublisher, err := setupPublisher(ctx, cfg, logger, healthChecker)
	if err != nil {
		_ = resultStorage.Close()
		resultCache.Close()
		cancel()
		return nil, fmt.Errorf("setup publisher: %w", err)
	}

	wsClient, books, err := setupLiveBooks(cfg, logger, healthChecker)
	if err != nil {
		_ = signalPublisher.Close()
		_ = resultStorage.Close()
		resultCache.Close()
		cancel()
		return nil, fmt.Errorf("setup live books: %w", err)
	}

	discoveryService := setupDiscoveryService(cfg, logger, resultCache)
	insightsService := setupInsightsService(cfg, logger, resultCache, resultStorage, signalPublisher)

	marketScanner, err := setupScanner(cfg, logger, discoveryService, insightsService, books)
	if err != nil {
		if wsClient != nil {
			_ = wsClient.Close()
		}
		_ = signalPublisher.Close()
		_ = resultStorage.Close()
		resultCache.Close()
		cancel()
		return nil, fmt.Errorf("setup scanner: %w", err)
	}

	httpServer := setupHTTPServer(cfg, logger, healthChecker, insightsService, books)

	return &App{
		cfg:              cfg,
		logger:           logger,
		healthChecker:    healthChecker,
		httpServer:       httpServer,
		cache:            resultCache,
		discoveryService: discoveryService,
		insightsService:  insightsService,
		scanner:          marketScanner,
		wsClient:         wsClient,
		books:            books,
		storage:          resultStorage,
		publisher:        signalPublisher,
		ctx:              ctx,
		cancel:           cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig(logger))
}

func setupStorage(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
) (storage.Storage, error) {
	if cfg.StorageMode != "postgres" {
		return storage.NewConsoleStorage(logger), nil
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
		DSN:    cfg.PostgresDSN(),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres storage: %w", err)
	}

	err = pgStorage.EnsureSchema(ctx)
	if err != nil {
		_ = pgStorage.Close()
		return nil, err
	}

	healthChecker.AddCheck("postgres", pgStorage.Ping)
	return pgStorage, nil
}

func setupPublisher(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
) (publisher.SignalPublisher, error) {
	if cfg.PublisherMode != "redis" {
		return publisher.NewNopPublisher(logger), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	streamPublisher := publisher.NewStreamPublisher(client, cfg.SignalStream, logger)
	err := streamPublisher.Ping(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("stream-publisher-connected",
		zap.String("addr", cfg.RedisAddr),
		zap.String("stream", cfg.SignalStream))

	healthChecker.AddCheck("redis", streamPublisher.Ping)
	return streamPublisher, nil
}

// setupLiveBooks connects to the CLOB market channel and returns the tracker
// fed by it. Both are nil when live books are disabled.
func setupLiveBooks(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
) (*websocket.Client, *orderbook.Tracker, error) {
	if !cfg.LiveBooksEnabled {
		logger.Info("live-books-disabled")
		return nil, nil, nil
	}

	wsClient := websocket.New(websocket.Config{
		URL:                   cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PingInterval:          cfg.WSPingInterval,
		PongTimeout:           cfg.WSPongTimeout,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})

	err := wsClient.Start()
	if err != nil {
		_ = wsClient.Close()
		return nil, nil, fmt.Errorf("connect market channel: %w", err)
	}

	books := orderbook.New(&orderbook.Config{
		Events:     wsClient.Events(),
		Subscriber: wsClient,
		Window:     cfg.BookWindow,
		DepthBand:  cfg.BookDepthBand,
		ImpactSize: cfg.BookImpactSize,
		Logger:     logger,
	})

	healthChecker.AddCheck("websocket", wsClient.Ping)
	return wsClient, books, nil
}

func setupDiscoveryService(cfg *config.Config, logger *zap.Logger, marketCache *cache.RistrettoCache) *discovery.Service {
	discoveryClient := discovery.NewClient(cfg.PolymarketGammaURL, logger)
	return discovery.New(&discovery.Config{
		Client:      discoveryClient,
		Cache:       marketCache,
		MarketLimit: cfg.ScannerMarketLimit,
		Logger:      logger,
	})
}

func setupInsightsService(
	cfg *config.Config,
	logger *zap.Logger,
	resultCache *cache.RistrettoCache,
	resultStorage storage.Storage,
	signalPublisher publisher.SignalPublisher,
) *insights.Service {
	return insights.New(&insights.Config{
		Cache:                resultCache,
		CacheTTL:             cfg.CacheTTL,
		Storage:              resultStorage,
		Publisher:            signalPublisher,
		FlowSessionGap:       cfg.FlowSessionGap,
		FlowMinTrades:        cfg.FlowMinTrades,
		DefaultRiskTolerance: sizing.RiskTolerance(cfg.KellyDefaultRiskTolerance),
		Logger:               logger,
	})
}

func setupScanner(
	cfg *config.Config,
	logger *zap.Logger,
	discoveryService *discovery.Service,
	insightsService *insights.Service,
	books *orderbook.Tracker,
) (*scanner.Scanner, error) {
	if !cfg.ScannerEnabled {
		logger.Info("scanner-disabled")
		return nil, nil
	}

	scannerCfg := &scanner.Config{
		Source:   discoveryService,
		Analyzer: insightsService,
		Schedule: cfg.ScannerSchedule,
		Logger:   logger,
	}
	if books != nil {
		scannerCfg.Books = books
	}

	return scanner.New(scannerCfg)
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	insightsService *insights.Service,
	books *orderbook.Tracker,
) *httpserver.Server {
	serverCfg := &httpserver.Config{
		Port:           cfg.HTTPPort,
		Logger:         logger,
		HealthChecker:  healthChecker,
		Insights:       insightsService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if books != nil {
		serverCfg.Books = books
	}

	return httpserver.New(serverCfg)
}
