// Package scanner periodically pulls active markets and runs the behavior,
// consistency and, when live books are available, market-state engines over
// them.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/consistency"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/marketstate"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// MarketSource supplies the markets to scan.
type MarketSource interface {
	Refresh(ctx context.Context) ([]types.Market, []*types.Market, error)
}

// Analyzer scores the scanned markets.
type Analyzer interface {
	ClassifyBehavior(ctx context.Context, market behavior.Market) (behavior.ClusterResult, error)
	ScanConsistency(
		ctx context.Context,
		markets []consistency.MarketSnapshot,
		thresholds *consistency.Thresholds,
	) ([]consistency.CheckResult, error)
	ClassifyMarketState(
		ctx context.Context,
		features marketstate.Features,
		thresholds *marketstate.Thresholds,
		historical *marketstate.HistoricalAverages,
	) (marketstate.Result, error)
}

// BookSource supplies market-state features from live order books.
type BookSource interface {
	Track(ctx context.Context, markets []types.Market) error
	Features(marketID string) (marketstate.Features, bool)
}

// Report summarizes one scan.
type Report struct {
	Markets      int
	NewMarkets   int
	Classified   int
	Failed       int
	RelatedPairs int
	Divergent    int
	Clusters     map[behavior.Cluster]int
	States       map[marketstate.StateLabel]int
	Duration     time.Duration
}

// Scanner runs scans on a cron schedule.
type Scanner struct {
	source   MarketSource
	analyzer Analyzer
	books    BookSource
	schedule string
	logger   *zap.Logger

	cron    *cron.Cron
	baseCtx context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// Config holds scanner configuration.
type Config struct {
	Source   MarketSource
	Analyzer Analyzer
	Books    BookSource // optional
	Schedule string     // cron spec, e.g. "@every 5m" or "*/10 * * * *"
	Logger   *zap.Logger
}

// New creates a scanner. The schedule is parsed up front so a bad spec fails
// at startup.
func New(cfg *Config) (*Scanner, error) {
	if cfg.Source == nil || cfg.Analyzer == nil {
		return nil, errors.New("scanner needs a market source and an analyzer")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cronLogger := zapCronLogger{logger: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scanner{
		source:   cfg.Source,
		analyzer: cfg.Analyzer,
		books:    cfg.Books,
		schedule: cfg.Schedule,
		logger:   logger,
		cron:     c,
		baseCtx:  ctx,
		cancel:   cancel,
	}

	_, err := c.AddFunc(cfg.Schedule, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("parse scanner schedule %q: %w", cfg.Schedule, err)
	}

	return s, nil
}

// Start begins scheduled scans. It does not run one immediately.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()

	s.logger.Info("scanner-started", zap.String("schedule", s.schedule))
}

// Stop cancels any running scan and waits for it to return.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.started {
		return
	}
	s.started = false

	<-s.cron.Stop().Done()
	s.logger.Info("scanner-stopped")
}

func (s *Scanner) tick() {
	_, err := s.RunOnce(s.baseCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("scan-failed", zap.Error(err))
	}
}

// RunOnce performs a single scan. Per-market classification failures are
// counted in the report and do not abort the scan.
func (s *Scanner) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{
		Clusters: make(map[behavior.Cluster]int),
		States:   make(map[marketstate.StateLabel]int),
	}

	markets, newMarkets, err := s.source.Refresh(ctx)
	if err != nil {
		ScansTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("refresh markets: %w", err)
	}
	report.Markets = len(markets)
	report.NewMarkets = len(newMarkets)

	if s.books != nil {
		err = s.books.Track(ctx, markets)
		if err != nil {
			s.logger.Warn("track-books-failed", zap.Error(err))
		}
	}

	snapshots := make([]consistency.MarketSnapshot, 0, len(markets))
	for i := range markets {
		if ctx.Err() != nil {
			ScansTotal.WithLabelValues("canceled").Inc()
			return report, ctx.Err()
		}

		result, classifyErr := s.analyzer.ClassifyBehavior(ctx, insights.BehaviorMarket(markets[i]))
		if classifyErr != nil {
			report.Failed++
			s.logger.Warn("classify-market-failed",
				zap.String("market-id", markets[i].ID),
				zap.Error(classifyErr))
		} else {
			report.Classified++
			report.Clusters[result.Cluster]++
		}

		s.classifyState(ctx, markets[i].ID, &report)
		snapshots = append(snapshots, insights.Snapshot(markets[i]))
	}
	MarketsScannedTotal.Add(float64(report.Classified))

	checks, err := s.analyzer.ScanConsistency(ctx, snapshots, nil)
	if err != nil {
		ScansTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("scan consistency: %w", err)
	}
	report.RelatedPairs = len(checks)
	for _, c := range checks {
		if c.Label != consistency.LabelConsistent {
			report.Divergent++
		}
	}
	DivergentPairs.Set(float64(report.Divergent))

	report.Duration = time.Since(start)
	ScanDurationSeconds.Observe(report.Duration.Seconds())
	ScansTotal.WithLabelValues("ok").Inc()

	s.logger.Info("scan-complete",
		zap.Int("markets", report.Markets),
		zap.Int("new-markets", report.NewMarkets),
		zap.Int("classified", report.Classified),
		zap.Int("failed", report.Failed),
		zap.Int("related-pairs", report.RelatedPairs),
		zap.Int("divergent-pairs", report.Divergent),
		zap.Int("live-states", sumCounts(report.States)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// classifyState labels the market from its live book, if one has data.
func (s *Scanner) classifyState(ctx context.Context, marketID string, report *Report) {
	if s.books == nil {
		return
	}

	features, ok := s.books.Features(marketID)
	if !ok {
		return
	}

	result, err := s.analyzer.ClassifyMarketState(ctx, features, nil, nil)
	if err != nil {
		s.logger.Warn("classify-market-state-failed",
			zap.String("market-id", marketID),
			zap.Error(err))
		return
	}

	report.States[result.StateLabel]++
	StatesClassifiedTotal.WithLabelValues(string(result.StateLabel)).Inc()
}

func sumCounts[K comparable](counts map[K]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron-"+msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron-"+msg, append(keysAndValues, "error", err)...)
}
