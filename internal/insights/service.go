// Package insights runs the scoring engines behind a result cache, archives
// what they produce and publishes Best Bets signals.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/consistency"
	"github.com/mselser95/polymarket-insights/internal/flow"
	"github.com/mselser95/polymarket-insights/internal/marketstate"
	"github.com/mselser95/polymarket-insights/internal/participation"
	"github.com/mselser95/polymarket-insights/internal/publisher"
	"github.com/mselser95/polymarket-insights/internal/signals"
	"github.com/mselser95/polymarket-insights/internal/sizing"
	"github.com/mselser95/polymarket-insights/internal/storage"
	"github.com/mselser95/polymarket-insights/internal/traderscore"
	"github.com/mselser95/polymarket-insights/pkg/cache"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// Cache kinds for results that are never archived.
const (
	kindEpisodes = "flow_episodes"
	kindSizing   = "sizing"
)

// behaviorBucket bounds how long a cached behavior result is reused. Its
// time-to-resolution dimension moves with the clock, so the cache key carries
// the current bucket.
const behaviorBucket = time.Minute

// Service is the entry point the HTTP API, CLI and scanner share.
type Service struct {
	cache            cache.Cache
	cacheTTL         time.Duration
	store            storage.Storage
	publisher        publisher.SignalPublisher
	flowDefaults     flow.Thresholds
	defaultTolerance sizing.RiskTolerance
	logger           *zap.Logger
	now              func() time.Time
}

// Config holds service dependencies. Cache, Storage and Publisher are optional.
// The cache is only used with a positive CacheTTL.
type Config struct {
	Cache                cache.Cache
	CacheTTL             time.Duration
	Storage              storage.Storage
	Publisher            publisher.SignalPublisher
	FlowSessionGap       time.Duration
	FlowMinTrades        int
	DefaultRiskTolerance sizing.RiskTolerance
	Logger               *zap.Logger
}

// New creates a service.
func New(cfg *Config) *Service {
	flowDefaults := flow.DefaultThresholds()
	if cfg.FlowSessionGap > 0 {
		flowDefaults.SessionGapMinutes = cfg.FlowSessionGap.Minutes()
	}
	if cfg.FlowMinTrades > 0 {
		flowDefaults.MinTradesForEpisode = cfg.FlowMinTrades
	}

	tolerance := cfg.DefaultRiskTolerance
	if tolerance == "" {
		tolerance = sizing.ToleranceConservative
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// A non-positive TTL disables result caching
	resultCache := cfg.Cache
	if cfg.CacheTTL <= 0 {
		resultCache = nil
	}

	return &Service{
		cache:            resultCache,
		cacheTTL:         cfg.CacheTTL,
		store:            cfg.Storage,
		publisher:        cfg.Publisher,
		flowDefaults:     flowDefaults,
		defaultTolerance: tolerance,
		logger:           logger,
		now:              time.Now,
	}
}

// FlowDefaults returns the flow thresholds used when a request sets none.
func (s *Service) FlowDefaults() flow.Thresholds {
	return s.flowDefaults
}

// ClassifyMarketState labels a market's trading regime. Nil thresholds select
// the defaults; non-nil thresholds are used whole, so callers merging partial
// overrides must start from marketstate.DefaultThresholds.
func (s *Service) ClassifyMarketState(
	ctx context.Context,
	features marketstate.Features,
	thresholds *marketstate.Thresholds,
	historical *marketstate.HistoricalAverages,
) (marketstate.Result, error) {
	if features.MarketID == "" {
		return marketstate.Result{}, requiredField("marketId")
	}

	t := marketstate.DefaultThresholds()
	if thresholds != nil {
		t = *thresholds
	}

	key := struct {
		F marketstate.Features
		T marketstate.Thresholds
		H *marketstate.HistoricalAverages
	}{features, t, historical}

	result, fresh, err := cached(s, string(storage.KindMarketState), key, func() (marketstate.Result, error) {
		return marketstate.Classify(features, t, historical), nil
	})
	if err != nil {
		return marketstate.Result{}, err
	}

	if fresh {
		LabelsAssignedTotal.WithLabelValues(string(storage.KindMarketState), string(result.StateLabel)).Inc()
		s.archive(ctx, storage.KindMarketState, result.MarketID, result, result.ComputedAt)
	}

	return result, nil
}

// ClassifyBehavior assigns a market to its behavior cluster.
func (s *Service) ClassifyBehavior(ctx context.Context, market behavior.Market) (behavior.ClusterResult, error) {
	if market.MarketID == "" {
		return behavior.ClusterResult{}, requiredField("marketId")
	}

	key := struct {
		M behavior.Market
		B time.Time
	}{market, s.now().UTC().Truncate(behaviorBucket)}

	result, fresh, err := cached(s, string(storage.KindBehavior), key, func() (behavior.ClusterResult, error) {
		return behavior.Classify(market), nil
	})
	if err != nil {
		return behavior.ClusterResult{}, err
	}

	if fresh {
		LabelsAssignedTotal.WithLabelValues(string(storage.KindBehavior), string(result.Cluster)).Inc()
		s.archive(ctx, storage.KindBehavior, result.MarketID, result, result.ComputedAt)
	}

	return result, nil
}

// CheckConsistency checks one market pair. It returns nil when the markets
// are unrelated.
func (s *Service) CheckConsistency(
	ctx context.Context,
	pair consistency.Pair,
	thresholds *consistency.Thresholds,
) (*consistency.CheckResult, error) {
	if pair.A.MarketID == "" || pair.B.MarketID == "" {
		return nil, requiredField("marketId")
	}

	t := consistency.DefaultThresholds()
	if thresholds != nil {
		t = *thresholds
	}

	key := struct {
		P consistency.Pair
		T consistency.Thresholds
	}{pair, t}

	result, fresh, err := cached(s, string(storage.KindConsistency), key, func() (*consistency.CheckResult, error) {
		relation := consistency.DetectRelation(pair, t)
		if relation == nil {
			return nil, nil
		}
		check := consistency.CheckConsistency(pair, *relation, t)
		return &check, nil
	})
	if err != nil {
		return nil, err
	}

	if fresh && result != nil {
		s.recordConsistency(ctx, *result)
	}

	return result, nil
}

// ScanConsistency checks every related pair in markets.
func (s *Service) ScanConsistency(
	ctx context.Context,
	markets []consistency.MarketSnapshot,
	thresholds *consistency.Thresholds,
) ([]consistency.CheckResult, error) {
	t := consistency.DefaultThresholds()
	if thresholds != nil {
		t = *thresholds
	}

	start := time.Now()
	results := consistency.ScanPairs(markets, t)
	observe(string(storage.KindConsistency), start, nil)

	for _, r := range results {
		s.recordConsistency(ctx, r)
	}

	return results, nil
}

func (s *Service) recordConsistency(ctx context.Context, r consistency.CheckResult) {
	LabelsAssignedTotal.WithLabelValues(string(storage.KindConsistency), string(r.Label)).Inc()
	s.archive(ctx, storage.KindConsistency, r.MarketAID+"|"+r.MarketBID, r, r.ComputedAt)
}

// BuildEpisodes splits trades into episodes without labelling them.
func (s *Service) BuildEpisodes(
	ctx context.Context,
	marketID string,
	trades []flow.TradeEvent,
	thresholds *flow.Thresholds,
) ([]flow.Episode, error) {
	if marketID == "" {
		return nil, requiredField("marketId")
	}

	t := s.flowThresholds(thresholds)
	key := struct {
		M string
		E []flow.TradeEvent
		T flow.Thresholds
	}{marketID, trades, t}

	episodes, _, err := cached(s, kindEpisodes, key, func() ([]flow.Episode, error) {
		return flow.BuildEpisodes(marketID, trades, t), nil
	})
	return episodes, err
}

// SummarizeFlow labels every episode of a market's trade tape.
func (s *Service) SummarizeFlow(
	ctx context.Context,
	marketID string,
	trades []flow.TradeEvent,
	thresholds *flow.Thresholds,
) (flow.MarketSummary, error) {
	if marketID == "" {
		return flow.MarketSummary{}, requiredField("marketId")
	}

	t := s.flowThresholds(thresholds)
	key := struct {
		M string
		E []flow.TradeEvent
		T flow.Thresholds
	}{marketID, trades, t}

	summary, fresh, err := cached(s, string(storage.KindFlow), key, func() (flow.MarketSummary, error) {
		return flow.SummarizeMarket(marketID, trades, t), nil
	})
	if err != nil {
		return flow.MarketSummary{}, err
	}

	if fresh {
		for _, ep := range summary.Episodes {
			LabelsAssignedTotal.WithLabelValues(string(storage.KindFlow), string(ep.Label)).Inc()
		}
		s.archive(ctx, storage.KindFlow, marketID, summary, summary.ComputedAt)
	}

	return summary, nil
}

// flowThresholds returns t, or the configured defaults when t is nil.
func (s *Service) flowThresholds(t *flow.Thresholds) flow.Thresholds {
	if t == nil {
		return s.flowDefaults
	}
	return *t
}

// AnalyzeParticipation grades market setup and participant quality.
func (s *Service) AnalyzeParticipation(ctx context.Context, input participation.Input) (participation.Result, error) {
	if input.MarketID == "" {
		return participation.Result{}, requiredField("marketId")
	}

	result, fresh, err := cached(s, string(storage.KindParticipation), input, func() (participation.Result, error) {
		return participation.Analyze(input), nil
	})
	if err != nil {
		return participation.Result{}, err
	}

	if fresh {
		LabelsAssignedTotal.WithLabelValues(string(storage.KindParticipation), string(result.ParticipationSummary)).Inc()
		s.archive(ctx, storage.KindParticipation, result.MarketID, result, result.ComputedAt)
	}

	return result, nil
}

// WalletMetrics pairs a wallet with its performance record.
type WalletMetrics struct {
	WalletAddress string              `json:"walletAddress" validate:"required"`
	Metrics       traderscore.Metrics `json:"metrics"`
}

// ScoreTrader scores one wallet.
func (s *Service) ScoreTrader(ctx context.Context, wallet WalletMetrics) (traderscore.Score, error) {
	if wallet.WalletAddress == "" {
		return traderscore.Score{}, requiredField("walletAddress")
	}

	score, fresh, err := cached(s, string(storage.KindTraderScore), wallet, func() (traderscore.Score, error) {
		return traderscore.Calculate(wallet.WalletAddress, wallet.Metrics), nil
	})
	if err != nil {
		return traderscore.Score{}, err
	}

	if fresh {
		LabelsAssignedTotal.WithLabelValues(string(storage.KindTraderScore), string(score.Tier)).Inc()
		s.archive(ctx, storage.KindTraderScore, score.WalletAddress, score, score.ComputedAt)
	}

	return score, nil
}

// RankTraders scores every wallet and returns the best limit of them.
// limit <= 0 keeps all.
func (s *Service) RankTraders(ctx context.Context, wallets []WalletMetrics, limit int) ([]traderscore.Score, error) {
	scores := make([]traderscore.Score, 0, len(wallets))
	for _, w := range wallets {
		score, err := s.ScoreTrader(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", w.WalletAddress, err)
		}
		scores = append(scores, score)
	}

	return traderscore.Rank(scores, limit), nil
}

// SizeKelly sizes a bet from market odds and an edge estimate. An empty
// tolerance uses the configured default.
func (s *Service) SizeKelly(
	ctx context.Context,
	bankroll, odds, edge float64,
	tolerance sizing.RiskTolerance,
) (sizing.PositionSize, error) {
	if tolerance == "" {
		tolerance = s.defaultTolerance
	}

	key := struct {
		B, O, E float64
		T       sizing.RiskTolerance
	}{bankroll, odds, edge, tolerance}

	pos, _, err := cached(s, kindSizing, key, func() (sizing.PositionSize, error) {
		return sizing.CalculateKellyPosition(bankroll, odds, edge, tolerance)
	})
	return pos, err
}

// SizeAdvanced sizes a bet from an explicit win probability.
func (s *Service) SizeAdvanced(ctx context.Context, in sizing.KellyInputs) (sizing.PositionSize, error) {
	if in.RiskTolerance == "" {
		in.RiskTolerance = s.defaultTolerance
	}

	pos, _, err := cached(s, kindSizing, in, func() (sizing.PositionSize, error) {
		return sizing.CalculateAdvancedKelly(in)
	})
	return pos, err
}

// RiskLevels places stop-loss and take-profit prices around an entry.
// Zero percentages use the defaults.
func (s *Service) RiskLevels(entry, stopLossPct, takeProfitPct float64) (sizing.RiskLevels, error) {
	if stopLossPct == 0 {
		stopLossPct = sizing.DefaultStopLossPct
	}
	if takeProfitPct == 0 {
		takeProfitPct = sizing.DefaultTakeProfitPct
	}

	start := time.Now()
	levels, err := sizing.CalculateRiskLevels(entry, stopLossPct, takeProfitPct)
	observe(kindSizing, start, err)
	return levels, err
}

// BestBetsRequest is the market context and trader activity for a signal.
type BestBetsRequest struct {
	MarketID     string                   `json:"marketId" validate:"required"`
	Question     string                   `json:"question"`
	Category     string                   `json:"category"`
	CurrentPrice float64                  `json:"currentPrice" validate:"gte=0,lte=1"`
	Liquidity    float64                  `json:"liquidity" validate:"gte=0"`
	Activities   []signals.TraderActivity `json:"activities"`
}

// GenerateBestBets builds, archives and publishes a signal. It returns nil
// when there is too little activity.
func (s *Service) GenerateBestBets(ctx context.Context, req BestBetsRequest) (*signals.BestBetsSignal, error) {
	if req.MarketID == "" {
		return nil, requiredField("marketId")
	}

	start := time.Now()
	signal := signals.GenerateBestBets(req.MarketID, req.Question, req.Category, req.CurrentPrice, req.Liquidity, req.Activities)
	observe(string(storage.KindSignal), start, nil)

	if signal == nil {
		s.logger.Debug("best-bets-insufficient-activity",
			zap.String("market-id", req.MarketID),
			zap.Int("activities", len(req.Activities)))
		return nil, nil
	}

	LabelsAssignedTotal.WithLabelValues(string(storage.KindSignal), string(signal.SignalType)).Inc()
	s.archive(ctx, storage.KindSignal, signal.MarketID, signal, signal.GeneratedAt)

	if s.publisher != nil {
		err := s.publisher.PublishSignal(ctx, signal)
		if err != nil {
			s.logger.Warn("publish-signal-failed",
				zap.String("signal-id", signal.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("best-bets-signal-generated",
		zap.String("signal-id", signal.ID),
		zap.String("market-id", signal.MarketID),
		zap.String("signal-type", string(signal.SignalType)),
		zap.Float64("confidence", signal.ConfidenceScore))

	return signal, nil
}

// archive stores a result. Archival failures are logged, never returned.
func (s *Service) archive(ctx context.Context, kind storage.Kind, subjectID string, result interface{}, computedAt time.Time) {
	if s.store == nil {
		return
	}

	rec, err := storage.NewRecord(kind, subjectID, result, computedAt)
	if err == nil {
		err = s.store.StoreResult(ctx, rec)
	}
	if err != nil {
		ArchiveErrorsTotal.WithLabelValues(string(kind)).Inc()
		s.logger.Warn("archive-result-failed",
			zap.String("kind", string(kind)),
			zap.String("subject-id", subjectID),
			zap.Error(err))
	}
}

// cached returns the cached result for input or computes and caches it.
// fresh reports whether compute ran.
func cached[T any](s *Service, kind string, input interface{}, compute func() (T, error)) (result T, fresh bool, err error) {
	var key string
	if s.cache != nil {
		k, keyErr := cache.Key(kind, input)
		if keyErr != nil {
			s.logger.Warn("cache-key-failed", zap.String("kind", kind), zap.Error(keyErr))
		} else {
			key = k
			if v, ok := s.cache.Get(key); ok {
				if hit, ok := v.(T); ok {
					return hit, false, nil
				}
			}
		}
	}

	start := time.Now()
	result, err = compute()
	observe(kind, start, err)
	if err != nil {
		return result, false, err
	}

	if key != "" {
		s.cache.Set(key, result, s.cacheTTL)
	}

	return result, true, nil
}

func observe(kind string, start time.Time, err error) {
	ComputeDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, types.ErrInvalidArgument) {
			status = "invalid"
		}
	}
	ComputationsTotal.WithLabelValues(kind, status).Inc()
}

func requiredField(field string) error {
	return fmt.Errorf("%s is required: %w", field, types.ErrInvalidArgument)
}
