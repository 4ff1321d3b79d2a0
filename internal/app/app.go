package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/discovery"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/orderbook"
	"github.com/mselser95/polymarket-insights/internal/publisher"
	"github.com/mselser95/polymarket-insights/internal/scanner"
	"github.com/mselser95/polymarket-insights/internal/storage"
	"github.com/mselser95/polymarket-insights/pkg/cache"
	"github.com/mselser95/polymarket-insights/pkg/config"
	"github.com/mselser95/polymarket-insights/pkg/healthprobe"
	"github.com/mselser95/polymarket-insights/pkg/httpserver"
	"github.com/mselser95/polymarket-insights/pkg/websocket"
)

// App is the main application orchestrator.
type App struct {
	cfg              *config.Config
	logger           *zap.Logger
	healthChecker    *healthprobe.HealthChecker
	httpServer       *httpserver.Server
	cache            *cache.RistrettoCache
	discoveryService *discovery.Service
	insightsService  *insights.Service
	scanner          *scanner.Scanner   // nil when SCANNER_ENABLED=false
	wsClient         *websocket.Client  // nil when LIVE_BOOKS_ENABLED=false
	books            *orderbook.Tracker // nil when LIVE_BOOKS_ENABLED=false
	storage          storage.Storage
	publisher        publisher.SignalPublisher
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	shutdownOnce     sync.Once
}

// Insights returns the shared insights service.
func (a *App) Insights() *insights.Service {
	return a.insightsService
}

// Discovery returns the Gamma market discovery service.
func (a *App) Discovery() *discovery.Service {
	return a.discoveryService
}
