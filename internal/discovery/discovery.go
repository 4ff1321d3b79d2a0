package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/pkg/cache"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

const marketCacheTTL = 24 * time.Hour

// SeenMarket records when a market was first picked up.
type SeenMarket struct {
	MarketID  string
	Slug      string
	Question  string
	FirstSeen time.Time
}

// Service tracks the active, priced markets the scanner works on.
type Service struct {
	client      *Client
	cache       cache.Cache
	marketLimit int
	orderBy     string
	logger      *zap.Logger
	seen        map[string]*SeenMarket
	mu          sync.RWMutex
}

// Config holds discovery service configuration.
type Config struct {
	Client      *Client
	Cache       cache.Cache
	MarketLimit int
	OrderBy     string // defaults to volume24hr
	Logger      *zap.Logger
}

// New creates a new discovery service.
func New(cfg *Config) *Service {
	orderBy := cfg.OrderBy
	if orderBy == "" {
		orderBy = "volume24hr"
	}

	return &Service{
		client:      cfg.Client,
		cache:       cfg.Cache,
		marketLimit: cfg.MarketLimit,
		orderBy:     orderBy,
		logger:      cfg.Logger,
		seen:        make(map[string]*SeenMarket),
	}
}

// Refresh fetches active markets and returns the usable ones along with the
// subset not seen on any earlier refresh.
func (s *Service) Refresh(ctx context.Context) ([]types.Market, []*types.Market, error) {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	resp, err := s.client.FetchActiveMarkets(ctx, s.marketLimit, 0, s.orderBy)
	if err != nil {
		PollErrorsTotal.Inc()
		return nil, nil, fmt.Errorf("fetch active markets: %w", err)
	}

	MarketsDiscoveredTotal.Add(float64(len(resp.Data)))

	usable := make([]types.Market, 0, len(resp.Data))
	for i := range resp.Data {
		if !s.usable(&resp.Data[i]) {
			continue
		}
		usable = append(usable, resp.Data[i])
	}

	newMarkets := s.identifyNewMarkets(usable)
	for _, m := range newMarkets {
		s.cacheMarket(m)
		NewMarketsTotal.Inc()
		s.logger.Info("new-market-discovered",
			zap.String("market-id", m.ID),
			zap.String("question", m.Question))
	}

	s.logger.Debug("refresh-complete",
		zap.Int("total-markets", len(resp.Data)),
		zap.Int("usable-markets", len(usable)),
		zap.Int("new-markets", len(newMarkets)),
		zap.Duration("duration", time.Since(start)))

	return usable, newMarkets, nil
}

// usable reports whether the engines can score the market.
func (s *Service) usable(m *types.Market) bool {
	if m.Closed || m.Question == "" {
		return false
	}
	if _, ok := m.YesPrice(); !ok {
		s.logger.Debug("skipping-market-missing-prices",
			zap.String("market-id", m.ID),
			zap.String("question", m.Question))
		return false
	}
	return true
}

// identifyNewMarkets returns markets that haven't been seen yet and marks them.
func (s *Service) identifyNewMarkets(markets []types.Market) []*types.Market {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newMarkets []*types.Market
	now := time.Now()

	for i := range markets {
		market := &markets[i]
		if _, exists := s.seen[market.ID]; exists {
			continue
		}

		s.seen[market.ID] = &SeenMarket{
			MarketID:  market.ID,
			Slug:      market.Slug,
			Question:  market.Question,
			FirstSeen: now,
		}
		newMarkets = append(newMarkets, market)
	}

	return newMarkets
}

// SeenMarkets returns every market seen so far.
func (s *Service) SeenMarkets() []*SeenMarket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*SeenMarket, 0, len(s.seen))
	for _, m := range s.seen {
		out = append(out, m)
	}

	return out
}

func marketKey(id string) string {
	return "market:" + id
}

func (s *Service) cacheMarket(market *types.Market) {
	if s.cache == nil {
		return
	}

	if !s.cache.Set(marketKey(market.ID), market, marketCacheTTL) {
		s.logger.Warn("failed-to-cache-market", zap.String("market-id", market.ID))
	}
}

// GetMarket returns a cached market, or nil when it is not cached.
func (s *Service) GetMarket(marketID string) *types.Market {
	if s.cache == nil {
		return nil
	}

	value, found := s.cache.Get(marketKey(marketID))
	if !found {
		return nil
	}

	market, ok := value.(*types.Market)
	if !ok {
		s.logger.Warn("invalid-market-type-in-cache",
			zap.String("market-id", marketID))
		return nil
	}

	return market
}
