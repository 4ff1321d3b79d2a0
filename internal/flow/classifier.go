package flow

import (
	"fmt"
	"math"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// Label is the flow pattern behind an episode.
type Label string

// Known flow labels, in tie-break order.
const (
	LabelOneOffSpike           Label = "one_off_spike"
	LabelSustainedAccumulation Label = "sustained_accumulation"
	LabelCrowdChase            Label = "crowd_chase"
	LabelExhaustionMove        Label = "exhaustion_move"
)

// Labels lists every flow label in tie-break order.
func Labels() []Label {
	return []Label{LabelOneOffSpike, LabelSustainedAccumulation, LabelCrowdChase, LabelExhaustionMove}
}

// LabelResult is the classification of one episode.
type LabelResult struct {
	MarketID     string            `json:"marketId"`
	EpisodeIndex int               `json:"episodeIndex"`
	StartTime    time.Time         `json:"startTime"`
	EndTime      time.Time         `json:"endTime"`
	Label        Label             `json:"label"`
	Confidence   float64           `json:"confidence"`
	Scores       map[Label]float64 `json:"scores"`
	WhyBullets   []types.WhyBullet `json:"whyBullets"`
	ComputedAt   time.Time         `json:"computedAt"`
}

// MarketSummary rolls up every episode in a market.
type MarketSummary struct {
	MarketID      string        `json:"marketId"`
	TradeCount    int           `json:"tradeCount"`
	EpisodeCount  int           `json:"episodeCount"`
	TotalVolume   float64       `json:"totalVolume"`
	NetFlow       float64       `json:"netFlow"`
	LabelCounts   map[Label]int `json:"labelCounts"`
	DominantLabel Label         `json:"dominantLabel,omitempty"`
	Episodes      []LabelResult `json:"episodes"`
	ComputedAt    time.Time     `json:"computedAt"`
}

type rubric struct {
	score   float64
	bullets []types.WhyBullet
}

func (r *rubric) add(points float64, bullet types.WhyBullet) {
	r.score += points
	r.bullets = append(r.bullets, bullet)
}

// ClassifyEpisode scores the four flow patterns and returns the best one.
// followUpPrice is the first price seen after the episode, if known.
func ClassifyEpisode(episode Episode, thresholds Thresholds, followUpPrice *float64) LabelResult {
	rubrics := map[Label]*rubric{
		LabelOneOffSpike:           scoreSpike(episode, thresholds),
		LabelSustainedAccumulation: scoreAccumulation(episode, thresholds),
		LabelCrowdChase:            scoreCrowdChase(episode, thresholds),
		LabelExhaustionMove:        scoreExhaustion(episode, thresholds, followUpPrice),
	}

	labels := Labels()
	winner := labels[0]
	for _, label := range labels[1:] {
		if rubrics[label].score > rubrics[winner].score {
			winner = label
		}
	}

	scores := make(map[Label]float64, len(rubrics))
	for label, r := range rubrics {
		scores[label] = r.score
	}

	return LabelResult{
		MarketID:     episode.MarketID,
		EpisodeIndex: episode.Index,
		StartTime:    episode.StartTime,
		EndTime:      episode.EndTime,
		Label:        winner,
		Confidence:   scoring.Round(math.Min(100, rubrics[winner].score)),
		Scores:       scores,
		WhyBullets:   types.PadWhyBullets(rubrics[winner].bullets, episodeBullets(episode)),
		ComputedAt:   time.Now().UTC(),
	}
}

// SummarizeMarket builds and classifies every episode. Each episode's
// follow-up price is the opening price of the next one.
func SummarizeMarket(marketID string, trades []TradeEvent, thresholds Thresholds) MarketSummary {
	episodes := BuildEpisodes(marketID, trades, thresholds)

	summary := MarketSummary{
		MarketID:     marketID,
		TradeCount:   len(trades),
		EpisodeCount: len(episodes),
		LabelCounts:  make(map[Label]int),
		Episodes:     make([]LabelResult, 0, len(episodes)),
		ComputedAt:   time.Now().UTC(),
	}

	for i, ep := range episodes {
		var followUp *float64
		if i+1 < len(episodes) {
			next := episodes[i+1].StartPrice
			followUp = &next
		}

		result := ClassifyEpisode(ep, thresholds, followUp)
		summary.Episodes = append(summary.Episodes, result)
		summary.LabelCounts[result.Label]++
		summary.TotalVolume += ep.TotalVolume
		summary.NetFlow += ep.NetFlow
	}

	best := 0
	for _, label := range Labels() {
		if n := summary.LabelCounts[label]; n > best {
			best = n
			summary.DominantLabel = label
		}
	}

	return summary
}

func scoreSpike(e Episode, t Thresholds) *rubric {
	r := &rubric{}
	if e.TradeCount <= t.SpikeMaxTrades {
		r.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("Only %d trades in the burst", e.TradeCount),
			Metric:     "trade_count",
			Value:      float64(e.TradeCount),
			Comparison: fmt.Sprintf("<= %d", t.SpikeMaxTrades),
		})
	}
	if e.AvgTradeSize >= t.SpikeMinAvgSize {
		r.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("Average trade of $%.0f", e.AvgTradeSize),
			Metric:     "avg_trade_size",
			Value:      scoring.RoundTo(e.AvgTradeSize, 2),
			Unit:       "USD",
			Comparison: fmt.Sprintf(">= %.0f", t.SpikeMinAvgSize),
		})
	}
	switch {
	case e.UniqueWallets == 1:
		r.add(25, types.WhyBullet{
			Text:   "A single wallet placed every trade",
			Metric: "unique_wallets",
			Value:  1,
		})
	case e.UniqueWallets == 2:
		r.add(10, types.WhyBullet{
			Text:   "Two wallets placed every trade",
			Metric: "unique_wallets",
			Value:  2,
		})
	}
	if e.DurationMinutes <= t.SpikeMaxMinutes {
		r.add(15, types.WhyBullet{
			Text:       fmt.Sprintf("Over within %.0f minutes", e.DurationMinutes),
			Metric:     "duration_minutes",
			Value:      e.DurationMinutes,
			Unit:       "minutes",
			Comparison: fmt.Sprintf("<= %.0f", t.SpikeMaxMinutes),
		})
	}
	return r
}

func scoreAccumulation(e Episode, t Thresholds) *rubric {
	r := &rubric{}
	if e.TradeCount >= t.AccumulationMinTrades {
		r.add(25, types.WhyBullet{
			Text:       fmt.Sprintf("%d trades over the episode", e.TradeCount),
			Metric:     "trade_count",
			Value:      float64(e.TradeCount),
			Comparison: fmt.Sprintf(">= %d", t.AccumulationMinTrades),
		})
	}
	if ratio := e.DirectionRatio(); ratio >= t.AccumulationDirection {
		r.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("%.0f%% of volume pushed the same way", ratio*100),
			Metric:     "direction_ratio",
			Value:      scoring.RoundTo(ratio, 3),
			Comparison: fmt.Sprintf(">= %.2f", t.AccumulationDirection),
		})
	}
	if e.DurationMinutes >= t.AccumulationMinMinutes {
		r.add(25, types.WhyBullet{
			Text:       fmt.Sprintf("Built up over %.0f minutes", e.DurationMinutes),
			Metric:     "duration_minutes",
			Value:      e.DurationMinutes,
			Unit:       "minutes",
			Comparison: fmt.Sprintf(">= %.0f", t.AccumulationMinMinutes),
		})
	}
	if e.UniqueWallets <= t.AccumulationMaxWallets {
		r.add(20, types.WhyBullet{
			Text:       fmt.Sprintf("Driven by %d wallets", e.UniqueWallets),
			Metric:     "unique_wallets",
			Value:      float64(e.UniqueWallets),
			Comparison: fmt.Sprintf("<= %d", t.AccumulationMaxWallets),
		})
	}
	return r
}

func scoreCrowdChase(e Episode, t Thresholds) *rubric {
	r := &rubric{}
	if e.UniqueWallets >= t.CrowdMinWallets {
		r.add(35, types.WhyBullet{
			Text:       fmt.Sprintf("%d different wallets piled in", e.UniqueWallets),
			Metric:     "unique_wallets",
			Value:      float64(e.UniqueWallets),
			Comparison: fmt.Sprintf(">= %d", t.CrowdMinWallets),
		})
	}
	withFlow := e.NetFlow != 0 && (e.PriceChange > 0) == (e.NetFlow > 0)
	if withFlow && math.Abs(e.PriceChange) >= t.CrowdMinPriceMove {
		r.add(35, types.WhyBullet{
			Text:       fmt.Sprintf("Price moved %.1f points in the direction of flow", e.PriceChange*100),
			Metric:     "price_change",
			Value:      e.PriceChange,
			Comparison: fmt.Sprintf(">= %.2f", t.CrowdMinPriceMove),
		})
	}
	if rate := e.TradesPerHour(); rate >= t.CrowdMinTradesPerHour {
		r.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("%.0f trades per hour", rate),
			Metric:     "trades_per_hour",
			Value:      scoring.RoundTo(rate, 1),
			Comparison: fmt.Sprintf(">= %.0f", t.CrowdMinTradesPerHour),
		})
	}
	return r
}

func scoreExhaustion(e Episode, t Thresholds, followUpPrice *float64) *rubric {
	r := &rubric{}
	if e.EndPrice >= t.ExhaustionExtremePrice || e.EndPrice <= 1-t.ExhaustionExtremePrice {
		r.add(35, types.WhyBullet{
			Text:   fmt.Sprintf("Price finished at an extreme of %.2f", e.EndPrice),
			Metric: "end_price",
			Value:  e.EndPrice,
		})
	}
	if e.UniqueWallets >= t.ExhaustionMinWallets {
		r.add(25, types.WhyBullet{
			Text:       fmt.Sprintf("%d wallets took part", e.UniqueWallets),
			Metric:     "unique_wallets",
			Value:      float64(e.UniqueWallets),
			Comparison: fmt.Sprintf(">= %d", t.ExhaustionMinWallets),
		})
	}
	if e.FirstHalfAvgSize > 0 {
		if decay := e.SecondHalfAvgSize / e.FirstHalfAvgSize; decay <= t.ExhaustionMaxSizeDecay {
			r.add(25, types.WhyBullet{
				Text:       fmt.Sprintf("Trade sizes shrank to %.0f%% of their opening level", decay*100),
				Metric:     "size_decay",
				Value:      scoring.RoundTo(decay, 3),
				Comparison: fmt.Sprintf("<= %.2f", t.ExhaustionMaxSizeDecay),
			})
		}
	}
	if followUpPrice != nil && e.PriceChange != 0 {
		reversal := *followUpPrice - e.EndPrice
		if reversal != 0 && (reversal > 0) != (e.PriceChange > 0) {
			r.add(15, types.WhyBullet{
				Text:   fmt.Sprintf("Price reversed %.1f points afterwards", math.Abs(reversal)*100),
				Metric: "follow_up_reversal",
				Value:  scoring.RoundTo(reversal, 6),
			})
		}
	}
	return r
}

func episodeBullets(e Episode) []types.WhyBullet {
	return []types.WhyBullet{
		{
			Text:   fmt.Sprintf("%d trades totalling $%.0f", e.TradeCount, e.TotalVolume),
			Metric: "total_volume",
			Value:  scoring.RoundTo(e.TotalVolume, 2),
			Unit:   "USD",
		},
		{
			Text:   fmt.Sprintf("Net flow of $%.0f", e.NetFlow),
			Metric: "net_flow",
			Value:  scoring.RoundTo(e.NetFlow, 2),
			Unit:   "USD",
		},
	}
}
