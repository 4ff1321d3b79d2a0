// Package orderbook keeps live CLOB order books and trade prints in memory
// and derives market-state features from them.
package orderbook

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/marketstate"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// Defaults for Config fields left at zero.
const (
	DefaultWindow     = time.Hour
	DefaultDepthBand  = 0.05
	DefaultImpactSize = 1000.0
)

// Subscriber adds CLOB token IDs to the live feed.
type Subscriber interface {
	Subscribe(ctx context.Context, assetIDs []string) error
}

// Config holds tracker configuration.
type Config struct {
	Events     <-chan *types.BookMessage
	Subscriber Subscriber
	// Window bounds the mid-price and trade history used for features.
	Window time.Duration
	// DepthBand is the distance from mid within which resting size counts as depth.
	DepthBand float64
	// ImpactSize is the USD notional walked through the asks for the impact proxy.
	ImpactSize float64
	Logger     *zap.Logger
}

type sample struct {
	at    time.Time
	value float64
}

type trade struct {
	at    time.Time
	price float64
	size  float64
}

type book struct {
	bids      map[float64]float64
	asks      map[float64]float64
	mids      []sample
	trades    []trade
	lastTrade time.Time
	updatedAt time.Time
}

func newBook() *book {
	return &book{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Tracker maintains one book per YES token of the tracked markets.
type Tracker struct {
	events     <-chan *types.BookMessage
	subscriber Subscriber
	window     time.Duration
	depthBand  float64
	impactSize float64
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	books  map[string]*book  // by token ID
	tokens map[string]string // market ID -> token ID

	wg sync.WaitGroup
}

// New creates a tracker.
func New(cfg *Config) *Tracker {
	t := &Tracker{
		events:     cfg.Events,
		subscriber: cfg.Subscriber,
		window:     cfg.Window,
		depthBand:  cfg.DepthBand,
		impactSize: cfg.ImpactSize,
		logger:     cfg.Logger,
		now:        time.Now,
		books:      make(map[string]*book),
		tokens:     make(map[string]string),
	}

	if t.window <= 0 {
		t.window = DefaultWindow
	}
	if t.depthBand <= 0 {
		t.depthBand = DefaultDepthBand
	}
	if t.impactSize <= 0 {
		t.impactSize = DefaultImpactSize
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}

	return t
}

// Start consumes events until ctx is done or the events channel closes.
func (t *Tracker) Start(ctx context.Context) {
	if t.events == nil {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.logger.Info("orderbook-tracker-starting")

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-t.events:
				if !ok {
					t.logger.Info("orderbook-event-channel-closed")
					return
				}
				err := t.Apply(msg)
				if err != nil {
					InvalidUpdatesTotal.WithLabelValues(msg.EventType).Inc()
					t.logger.Debug("orderbook-event-rejected",
						zap.String("event-type", msg.EventType),
						zap.String("asset-id", msg.AssetID),
						zap.Error(err))
				}
			}
		}
	}()
}

// Wait blocks until the consuming goroutine has returned.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Track registers the YES token of each market and subscribes the ones not
// tracked yet. Markets without a token ID are skipped. When the subscription
// fails the new markets are unregistered so the next Track retries them.
func (t *Tracker) Track(ctx context.Context, markets []types.Market) error {
	var (
		added     []string
		marketIDs []string
	)

	t.mu.Lock()
	for i := range markets {
		tokenID := markets[i].YesTokenID()
		if tokenID == "" {
			continue
		}
		if _, ok := t.tokens[markets[i].ID]; ok {
			continue
		}
		t.tokens[markets[i].ID] = tokenID
		if _, ok := t.books[tokenID]; !ok {
			t.books[tokenID] = newBook()
		}
		added = append(added, tokenID)
		marketIDs = append(marketIDs, markets[i].ID)
	}
	BooksTracked.Set(float64(len(t.books)))
	t.mu.Unlock()

	if len(added) == 0 || t.subscriber == nil {
		return nil
	}

	err := t.subscriber.Subscribe(ctx, added)
	if err != nil {
		t.mu.Lock()
		for _, id := range marketIDs {
			delete(t.tokens, id)
		}
		t.mu.Unlock()
		return fmt.Errorf("subscribe %d tokens: %w", len(added), err)
	}
	return nil
}

// Apply folds one event into its book.
func (t *Tracker) Apply(msg *types.BookMessage) error {
	start := time.Now()
	defer func() {
		ApplyDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	switch msg.EventType {
	case types.EventBook, types.EventPriceChange, types.EventLastTradePrice:
	default:
		return nil
	}

	at := t.now()
	if msg.Timestamp > 0 {
		at = time.UnixMilli(msg.Timestamp)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.books[msg.AssetID]
	if !ok {
		b = newBook()
		t.books[msg.AssetID] = b
		BooksTracked.Set(float64(len(t.books)))
	}

	var err error
	switch msg.EventType {
	case types.EventBook:
		err = b.replace(msg.Bids, msg.Asks)
	case types.EventPriceChange:
		err = b.change(msg)
	case types.EventLastTradePrice:
		err = b.print(msg, at)
	}
	if err != nil {
		return err
	}

	b.updatedAt = at
	if mid, ok := b.mid(); ok && msg.EventType != types.EventLastTradePrice {
		b.mids = append(b.mids, sample{at: at, value: mid})
	}
	b.prune(at.Add(-t.window))

	UpdatesTotal.WithLabelValues(msg.EventType).Inc()
	return nil
}

func (b *book) replace(bids []types.PriceLevel, asks []types.PriceLevel) error {
	newBids, err := parseLevels(bids)
	if err != nil {
		return fmt.Errorf("parse bids: %w", err)
	}
	newAsks, err := parseLevels(asks)
	if err != nil {
		return fmt.Errorf("parse asks: %w", err)
	}

	b.bids = newBids
	b.asks = newAsks
	return nil
}

// change applies incremental levels. A zero size removes the level.
func (b *book) change(msg *types.BookMessage) error {
	for _, lvl := range msg.Changes {
		price, size, err := lvl.Parse()
		if err != nil {
			return fmt.Errorf("parse change: %w", err)
		}

		side := b.bids
		if strings.EqualFold(lvl.Side, "SELL") {
			side = b.asks
		}
		setLevel(side, price, size)
	}

	for _, lvl := range msg.Bids {
		price, size, err := lvl.Parse()
		if err != nil {
			return fmt.Errorf("parse bid change: %w", err)
		}
		setLevel(b.bids, price, size)
	}
	for _, lvl := range msg.Asks {
		price, size, err := lvl.Parse()
		if err != nil {
			return fmt.Errorf("parse ask change: %w", err)
		}
		setLevel(b.asks, price, size)
	}

	return nil
}

func (b *book) print(msg *types.BookMessage, at time.Time) error {
	price, size, err := types.PriceLevel{Price: msg.Price, Size: msg.Size}.Parse()
	if err != nil {
		return fmt.Errorf("parse trade: %w", err)
	}

	b.trades = append(b.trades, trade{at: at, price: price, size: size})
	if at.After(b.lastTrade) {
		b.lastTrade = at
	}
	return nil
}

// prune drops samples older than cutoff. Events can arrive out of timestamp
// order, so every sample is checked.
func (b *book) prune(cutoff time.Time) {
	mids := b.mids[:0]
	for _, m := range b.mids {
		if !m.at.Before(cutoff) {
			mids = append(mids, m)
		}
	}
	b.mids = mids

	trades := b.trades[:0]
	for _, tr := range b.trades {
		if !tr.at.Before(cutoff) {
			trades = append(trades, tr)
		}
	}
	b.trades = trades
}

func parseLevels(levels []types.PriceLevel) (map[float64]float64, error) {
	out := make(map[float64]float64, len(levels))
	for _, lvl := range levels {
		price, size, err := lvl.Parse()
		if err != nil {
			return nil, err
		}
		if size > 0 {
			out[price] = size
		}
	}
	return out, nil
}

func setLevel(side map[float64]float64, price float64, size float64) {
	if size <= 0 {
		delete(side, price)
		return
	}
	side[price] = size
}

func (b *book) bestBid() (float64, bool) {
	best, ok := 0.0, false
	for p := range b.bids {
		if !ok || p > best {
			best, ok = p, true
		}
	}
	return best, ok
}

func (b *book) bestAsk() (float64, bool) {
	best, ok := 0.0, false
	for p := range b.asks {
		if !ok || p < best {
			best, ok = p, true
		}
	}
	return best, ok
}

func (b *book) mid() (float64, bool) {
	bid, okBid := b.bestBid()
	ask, okAsk := b.bestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// Features derives market-state features for a tracked market. It returns
// false when the market is unknown or nothing has been received for it yet.
// Features whose inputs are missing are left nil.
func (t *Tracker) Features(marketID string) (marketstate.Features, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tokenID, ok := t.tokens[marketID]
	if !ok {
		return marketstate.Features{}, false
	}
	b, ok := t.books[tokenID]
	if !ok || b.updatedAt.IsZero() {
		return marketstate.Features{}, false
	}

	now := t.now()
	cutoff := now.Add(-t.window)
	f := marketstate.Features{MarketID: marketID}

	bid, okBid := b.bestBid()
	ask, okAsk := b.bestAsk()
	if okBid && okAsk {
		spread := ask - bid
		f.Spread = &spread

		mid := (bid + ask) / 2
		depth := b.depth(mid, t.depthBand)
		f.Depth = &depth
	}

	if okAsk {
		impact := b.impact(ask, t.impactSize)
		f.ImpactProxy = &impact
	}

	if !b.lastTrade.IsZero() {
		staleness := math.Max(0, now.Sub(b.lastTrade).Minutes())
		f.Staleness = &staleness
	}

	if vol, ok := stddev(b.mids, cutoff); ok {
		f.VolProxy = &vol
	}

	count, volume := 0, 0.0
	for _, tr := range b.trades {
		if tr.at.Before(cutoff) {
			continue
		}
		count++
		volume += tr.price * tr.size
	}
	f.TradeCount = &count
	f.VolumeUSD = &volume

	return f, true
}

// depth is the USD value resting within band of mid on both sides.
func (b *book) depth(mid float64, band float64) float64 {
	total := 0.0
	for p, s := range b.bids {
		if mid-p <= band {
			total += p * s
		}
	}
	for p, s := range b.asks {
		if p-mid <= band {
			total += p * s
		}
	}
	return total
}

// impact is the relative slippage of buying notional USD through the asks.
// Notional the book cannot absorb fills at 1.00, the most a share can cost.
func (b *book) impact(bestAsk float64, notional float64) float64 {
	prices := make([]float64, 0, len(b.asks))
	for p := range b.asks {
		prices = append(prices, p)
	}
	sort.Float64s(prices)

	remaining := notional
	shares := 0.0
	for _, p := range prices {
		if remaining <= 0 {
			break
		}
		levelUSD := p * b.asks[p]
		take := math.Min(levelUSD, remaining)
		shares += take / p
		remaining -= take
	}
	if remaining > 0 {
		shares += remaining
	}

	vwap := notional / shares
	return (vwap - bestAsk) / bestAsk
}

// stddev is the population standard deviation of samples at or after cutoff.
func stddev(samples []sample, cutoff time.Time) (float64, bool) {
	n, sum := 0, 0.0
	for _, s := range samples {
		if s.at.Before(cutoff) {
			continue
		}
		n++
		sum += s.value
	}
	if n < 2 {
		return 0, false
	}

	mean := sum / float64(n)
	acc := 0.0
	for _, s := range samples {
		if s.at.Before(cutoff) {
			continue
		}
		d := s.value - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(n)), true
}

// Tracked returns the number of markets registered with Track.
func (t *Tracker) Tracked() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tokens)
}
