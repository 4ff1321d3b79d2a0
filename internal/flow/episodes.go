// Package flow splits a market's trade stream into episodes and labels the
// flow pattern behind each one.
package flow

import (
	"sort"
	"strings"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
)

// Side is the taker side of a trade.
type Side string

// Trade sides.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeEvent is a single fill. Size is USD notional.
type TradeEvent struct {
	WalletID  string    `json:"walletId"`
	Side      Side      `json:"side"`
	Size      float64   `json:"size"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// signedSize is negative for sells. Sides compare case-insensitively since
// upstream feeds send "SELL" and "sell" alike.
func (t TradeEvent) signedSize() float64 {
	if strings.EqualFold(string(t.Side), string(SideSell)) {
		return -t.Size
	}
	return t.Size
}

// Thresholds configures sessionization and the four flow rubrics.
type Thresholds struct {
	SessionGapMinutes      float64 `json:"sessionGapMinutes"`
	MinTradesForEpisode    int     `json:"minTradesForEpisode"`
	SpikeMaxTrades         int     `json:"spikeMaxTrades"`
	SpikeMinAvgSize        float64 `json:"spikeMinAvgSize"`
	SpikeMaxMinutes        float64 `json:"spikeMaxMinutes"`
	AccumulationMinTrades  int     `json:"accumulationMinTrades"`
	AccumulationDirection  float64 `json:"accumulationDirection"`
	AccumulationMinMinutes float64 `json:"accumulationMinMinutes"`
	AccumulationMaxWallets int     `json:"accumulationMaxWallets"`
	CrowdMinWallets        int     `json:"crowdMinWallets"`
	CrowdMinPriceMove      float64 `json:"crowdMinPriceMove"`
	CrowdMinTradesPerHour  float64 `json:"crowdMinTradesPerHour"`
	ExhaustionExtremePrice float64 `json:"exhaustionExtremePrice"`
	ExhaustionMinWallets   int     `json:"exhaustionMinWallets"`
	ExhaustionMaxSizeDecay float64 `json:"exhaustionMaxSizeDecay"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SessionGapMinutes:      30,
		MinTradesForEpisode:    2,
		SpikeMaxTrades:         5,
		SpikeMinAvgSize:        1000,
		SpikeMaxMinutes:        10,
		AccumulationMinTrades:  10,
		AccumulationDirection:  0.7,
		AccumulationMinMinutes: 60,
		AccumulationMaxWallets: 5,
		CrowdMinWallets:        10,
		CrowdMinPriceMove:      0.03,
		CrowdMinTradesPerHour:  20,
		ExhaustionExtremePrice: 0.90,
		ExhaustionMinWallets:   5,
		ExhaustionMaxSizeDecay: 0.7,
	}
}

// Episode is a maximal run of trades with no gap above the session threshold.
type Episode struct {
	MarketID          string    `json:"marketId"`
	Index             int       `json:"index"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	DurationMinutes   float64   `json:"durationMinutes"`
	TradeCount        int       `json:"tradeCount"`
	UniqueWallets     int       `json:"uniqueWallets"`
	NetFlow           float64   `json:"netFlow"`
	TotalVolume       float64   `json:"totalVolume"`
	AvgTradeSize      float64   `json:"avgTradeSize"`
	StartPrice        float64   `json:"startPrice"`
	EndPrice          float64   `json:"endPrice"`
	PriceChange       float64   `json:"priceChange"`
	FirstHalfAvgSize  float64   `json:"firstHalfAvgSize"`
	SecondHalfAvgSize float64   `json:"secondHalfAvgSize"`
}

// DirectionRatio is |net flow| over total volume, 0..1.
func (e Episode) DirectionRatio() float64 {
	net := e.NetFlow
	if net < 0 {
		net = -net
	}
	return scoring.Ratio(net, e.TotalVolume)
}

// TradesPerHour is the trade rate, treating sub-minute episodes as one minute.
func (e Episode) TradesPerHour() float64 {
	return float64(e.TradeCount) / max(e.DurationMinutes, 1) * 60
}

// BuildEpisodes sorts trades by time and splits them wherever the gap between
// consecutive trades exceeds the session gap. Episodes shorter than the
// minimum trade count are dropped.
func BuildEpisodes(marketID string, trades []TradeEvent, thresholds Thresholds) []Episode {
	if len(trades) == 0 {
		return nil
	}

	sorted := make([]TradeEvent, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	gap := time.Duration(thresholds.SessionGapMinutes * float64(time.Minute))

	var (
		episodes []Episode
		start    int
	)
	flush := func(end int) {
		run := sorted[start:end]
		if len(run) >= thresholds.MinTradesForEpisode {
			episodes = append(episodes, aggregate(marketID, len(episodes), run))
		}
		start = end
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) > gap {
			flush(i)
		}
	}
	flush(len(sorted))

	return episodes
}

func aggregate(marketID string, index int, run []TradeEvent) Episode {
	first, last := run[0], run[len(run)-1]

	wallets := make(map[string]struct{}, len(run))
	var net, volume float64
	for _, t := range run {
		wallets[t.WalletID] = struct{}{}
		net += t.signedSize()
		volume += t.Size
	}

	half := len(run) / 2

	return Episode{
		MarketID:          marketID,
		Index:             index,
		StartTime:         first.Timestamp,
		EndTime:           last.Timestamp,
		DurationMinutes:   scoring.RoundTo(last.Timestamp.Sub(first.Timestamp).Minutes(), 2),
		TradeCount:        len(run),
		UniqueWallets:     len(wallets),
		NetFlow:           net,
		TotalVolume:       volume,
		AvgTradeSize:      scoring.Ratio(volume, float64(len(run))),
		StartPrice:        first.Price,
		EndPrice:          last.Price,
		PriceChange:       scoring.RoundTo(last.Price-first.Price, 6),
		FirstHalfAvgSize:  avgSize(run[:half]),
		SecondHalfAvgSize: avgSize(run[half:]),
	}
}

func avgSize(trades []TradeEvent) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.Size
	}
	return scoring.Ratio(sum, float64(len(trades)))
}
