// Package marketstate labels a market's short-term trading regime from
// spread, depth, staleness and volatility features.
package marketstate

import (
	"fmt"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// StateLabel is the trading regime assigned to a market.
type StateLabel string

// Known state labels. Order matters: it is the tie-break order.
const (
	StateCalmLiquid   StateLabel = "calm_liquid"
	StateThinSlippage StateLabel = "thin_slippage"
	StateJumpy        StateLabel = "jumpy"
	StateEventDriven  StateLabel = "event_driven"
)

// Labels lists every state label in tie-break order.
func Labels() []StateLabel {
	return []StateLabel{StateCalmLiquid, StateThinSlippage, StateJumpy, StateEventDriven}
}

// Features is the per-market feature snapshot. Nil fields are unknown and
// their rules do not fire.
type Features struct {
	MarketID    string   `json:"marketId"`
	Spread      *float64 `json:"spread"`
	Depth       *float64 `json:"depth"`
	Staleness   *float64 `json:"staleness"` // minutes since last trade
	VolProxy    *float64 `json:"volProxy"`
	ImpactProxy *float64 `json:"impactProxy"`
	TradeCount  *int     `json:"tradeCount"`
	VolumeUSD   *float64 `json:"volumeUsd"`
}

// HistoricalAverages are trailing baselines used to detect event-driven bursts.
type HistoricalAverages struct {
	AvgVolumeUSD  *float64 `json:"avgVolumeUsd"`
	AvgTradeCount *float64 `json:"avgTradeCount"`
	AvgVolProxy   *float64 `json:"avgVolProxy"`
}

// Thresholds configures the scoring rules.
type Thresholds struct {
	SpreadTight    float64 `json:"spreadTight"`
	SpreadWide     float64 `json:"spreadWide"`
	DepthHigh      float64 `json:"depthHigh"`
	DepthLow       float64 `json:"depthLow"`
	StalenessFresh float64 `json:"stalenessFresh"`
	StalenessStale float64 `json:"stalenessStale"`
	VolLow         float64 `json:"volLow"`
	VolHigh        float64 `json:"volHigh"`
	ImpactLow      float64 `json:"impactLow"`
	ImpactHigh     float64 `json:"impactHigh"`
	VolumeHigh     float64 `json:"volumeHigh"`
	TradeCountLow  int     `json:"tradeCountLow"`
	TradeCountHigh int     `json:"tradeCountHigh"`
	SpikeRatio     float64 `json:"spikeRatio"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpreadTight:    0.02,
		SpreadWide:     0.05,
		DepthHigh:      10000,
		DepthLow:       2000,
		StalenessFresh: 5,
		StalenessStale: 60,
		VolLow:         0.02,
		VolHigh:        0.08,
		ImpactLow:      0.01,
		ImpactHigh:     0.05,
		VolumeHigh:     50000,
		TradeCountLow:  20,
		TradeCountHigh: 100,
		SpikeRatio:     3.0,
	}
}

// Result is the classification of a single market.
type Result struct {
	MarketID   string                 `json:"marketId"`
	StateLabel StateLabel             `json:"stateLabel"`
	Confidence float64                `json:"confidence"`
	WhyBullets []types.WhyBullet      `json:"whyBullets"`
	Features   Features               `json:"features"`
	Scores     map[StateLabel]float64 `json:"scores"`
	ComputedAt time.Time              `json:"computedAt"`
}

// candidate accumulates points and evidence for one label.
type candidate struct {
	score   float64
	bullets []types.WhyBullet
}

func (c *candidate) add(points float64, bullet types.WhyBullet) {
	c.score += points
	c.bullets = append(c.bullets, bullet)
}

// Classify scores all four states independently and returns the best one.
// historical may be nil.
func Classify(features Features, thresholds Thresholds, historical *HistoricalAverages) Result {
	candidates := map[StateLabel]*candidate{
		StateCalmLiquid:   {score: 10},
		StateThinSlippage: {score: 5},
		StateJumpy:        {},
		StateEventDriven:  {},
	}

	scoreCalmLiquid(candidates[StateCalmLiquid], features, thresholds)
	scoreThinSlippage(candidates[StateThinSlippage], features, thresholds)
	scoreJumpy(candidates[StateJumpy], features, thresholds)
	scoreEventDriven(candidates[StateEventDriven], features, thresholds, historical)

	winner, runnerUp := rank(candidates)
	confidence := scoring.Clamp(50+2*(candidates[winner].score-candidates[runnerUp].score), 0, 100)

	scores := make(map[StateLabel]float64, len(candidates))
	for label, c := range candidates {
		scores[label] = c.score
	}

	return Result{
		MarketID:   features.MarketID,
		StateLabel: winner,
		Confidence: confidence,
		WhyBullets: types.PadWhyBullets(candidates[winner].bullets, fillerBullets(features)),
		Features:   features,
		Scores:     scores,
		ComputedAt: time.Now().UTC(),
	}
}

// rank returns the best and second-best labels, breaking ties in Labels() order.
func rank(candidates map[StateLabel]*candidate) (winner StateLabel, runnerUp StateLabel) {
	labels := Labels()
	winner, runnerUp = labels[0], labels[1]
	if candidates[runnerUp].score > candidates[winner].score {
		winner, runnerUp = runnerUp, winner
	}

	for _, label := range labels[2:] {
		score := candidates[label].score
		switch {
		case score > candidates[winner].score:
			winner, runnerUp = label, winner
		case score > candidates[runnerUp].score:
			runnerUp = label
		}
	}

	return winner, runnerUp
}

func scoreCalmLiquid(c *candidate, f Features, t Thresholds) {
	if f.Spread != nil && *f.Spread <= t.SpreadTight {
		c.add(25, types.WhyBullet{
			Text:       fmt.Sprintf("Tight spread of %.1f¢", *f.Spread*100),
			Metric:     "spread",
			Value:      *f.Spread,
			Comparison: fmt.Sprintf("<= %.3f", t.SpreadTight),
		})
	}
	if f.Depth != nil && *f.Depth >= t.DepthHigh {
		c.add(25, types.WhyBullet{
			Text:       fmt.Sprintf("Deep book with $%.0f resting near the touch", *f.Depth),
			Metric:     "depth",
			Value:      *f.Depth,
			Unit:       "USD",
			Comparison: fmt.Sprintf(">= %.0f", t.DepthHigh),
		})
	}
	if f.VolProxy != nil && *f.VolProxy <= t.VolLow {
		c.add(20, types.WhyBullet{
			Text:       "Low short-term price volatility",
			Metric:     "vol_proxy",
			Value:      *f.VolProxy,
			Comparison: fmt.Sprintf("<= %.3f", t.VolLow),
		})
	}
	if f.ImpactProxy != nil && *f.ImpactProxy <= t.ImpactLow {
		c.add(15, types.WhyBullet{
			Text:       "Typical order moves price very little",
			Metric:     "impact_proxy",
			Value:      *f.ImpactProxy,
			Comparison: fmt.Sprintf("<= %.3f", t.ImpactLow),
		})
	}
	if f.Staleness != nil && *f.Staleness <= t.StalenessFresh {
		c.add(15, types.WhyBullet{
			Text:       fmt.Sprintf("Last trade %.0f minutes ago", *f.Staleness),
			Metric:     "staleness",
			Value:      *f.Staleness,
			Unit:       "minutes",
			Comparison: fmt.Sprintf("<= %.0f", t.StalenessFresh),
		})
	}
}

func scoreThinSlippage(c *candidate, f Features, t Thresholds) {
	if f.Spread != nil && *f.Spread >= t.SpreadWide {
		c.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("Wide spread of %.1f¢", *f.Spread*100),
			Metric:     "spread",
			Value:      *f.Spread,
			Comparison: fmt.Sprintf(">= %.3f", t.SpreadWide),
		})
	}
	if f.Depth != nil && *f.Depth <= t.DepthLow {
		c.add(30, types.WhyBullet{
			Text:       fmt.Sprintf("Only $%.0f of depth near the touch", *f.Depth),
			Metric:     "depth",
			Value:      *f.Depth,
			Unit:       "USD",
			Comparison: fmt.Sprintf("<= %.0f", t.DepthLow),
		})
	}
	if f.ImpactProxy != nil && *f.ImpactProxy >= t.ImpactHigh {
		c.add(25, types.WhyBullet{
			Text:       "Modest orders move price noticeably",
			Metric:     "impact_proxy",
			Value:      *f.ImpactProxy,
			Comparison: fmt.Sprintf(">= %.3f", t.ImpactHigh),
		})
	}
	if f.TradeCount != nil && *f.TradeCount < t.TradeCountLow {
		c.add(15, types.WhyBullet{
			Text:       fmt.Sprintf("Only %d trades in the window", *f.TradeCount),
			Metric:     "trade_count",
			Value:      float64(*f.TradeCount),
			Comparison: fmt.Sprintf("< %d", t.TradeCountLow),
		})
	}
	if f.Staleness != nil && *f.Staleness >= t.StalenessStale {
		c.add(10, types.WhyBullet{
			Text:       fmt.Sprintf("No trade for %.0f minutes", *f.Staleness),
			Metric:     "staleness",
			Value:      *f.Staleness,
			Unit:       "minutes",
			Comparison: fmt.Sprintf(">= %.0f", t.StalenessStale),
		})
	}
}

func scoreJumpy(c *candidate, f Features, t Thresholds) {
	volHigh := f.VolProxy != nil && *f.VolProxy >= t.VolHigh

	if volHigh {
		c.add(35, types.WhyBullet{
			Text:       "Price is swinging sharply between trades",
			Metric:     "vol_proxy",
			Value:      *f.VolProxy,
			Comparison: fmt.Sprintf(">= %.3f", t.VolHigh),
		})
	}
	if f.ImpactProxy != nil && *f.ImpactProxy >= t.ImpactHigh {
		c.add(15, types.WhyBullet{
			Text:       "Orders are pushing price around",
			Metric:     "impact_proxy",
			Value:      *f.ImpactProxy,
			Comparison: fmt.Sprintf(">= %.3f", t.ImpactHigh),
		})
	}
	if f.TradeCount != nil && *f.TradeCount >= t.TradeCountHigh {
		c.add(20, types.WhyBullet{
			Text:       fmt.Sprintf("%d trades in the window", *f.TradeCount),
			Metric:     "trade_count",
			Value:      float64(*f.TradeCount),
			Comparison: fmt.Sprintf(">= %d", t.TradeCountHigh),
		})
	}
	if volHigh && f.Spread != nil && *f.Spread > t.SpreadTight && *f.Spread < t.SpreadWide {
		c.add(10, types.WhyBullet{
			Text:   "Moderate spread despite large price moves",
			Metric: "spread",
			Value:  *f.Spread,
		})
	}
}

func scoreEventDriven(c *candidate, f Features, t Thresholds, h *HistoricalAverages) {
	hasVolumeBaseline := h != nil && h.AvgVolumeUSD != nil && *h.AvgVolumeUSD > 0

	if f.VolumeUSD != nil && hasVolumeBaseline {
		ratio := *f.VolumeUSD / *h.AvgVolumeUSD
		if ratio >= t.SpikeRatio {
			c.add(40, types.WhyBullet{
				Text:       fmt.Sprintf("Volume is %.1fx its historical average", ratio),
				Metric:     "volume_ratio",
				Value:      scoring.RoundTo(ratio, 2),
				Unit:       "x",
				Comparison: fmt.Sprintf(">= %.1f", t.SpikeRatio),
			})
		}
	}
	if f.VolumeUSD != nil && !hasVolumeBaseline && *f.VolumeUSD >= t.VolumeHigh {
		c.add(20, types.WhyBullet{
			Text:       fmt.Sprintf("$%.0f traded in the window", *f.VolumeUSD),
			Metric:     "volume_usd",
			Value:      *f.VolumeUSD,
			Unit:       "USD",
			Comparison: fmt.Sprintf(">= %.0f", t.VolumeHigh),
		})
	}
	if f.TradeCount != nil && h != nil && h.AvgTradeCount != nil && *h.AvgTradeCount > 0 {
		ratio := float64(*f.TradeCount) / *h.AvgTradeCount
		if ratio >= t.SpikeRatio {
			c.add(20, types.WhyBullet{
				Text:       fmt.Sprintf("Trade count is %.1fx its historical average", ratio),
				Metric:     "trade_count_ratio",
				Value:      scoring.RoundTo(ratio, 2),
				Unit:       "x",
				Comparison: fmt.Sprintf(">= %.1f", t.SpikeRatio),
			})
		}
	}
	if f.VolProxy != nil && h != nil && h.AvgVolProxy != nil && *h.AvgVolProxy > 0 {
		ratio := *f.VolProxy / *h.AvgVolProxy
		if ratio >= t.SpikeRatio {
			c.add(15, types.WhyBullet{
				Text:       fmt.Sprintf("Volatility is %.1fx its historical average", ratio),
				Metric:     "vol_ratio",
				Value:      scoring.RoundTo(ratio, 2),
				Unit:       "x",
				Comparison: fmt.Sprintf(">= %.1f", t.SpikeRatio),
			})
		}
	}
}

// fillerBullets describes what was observed when fewer than three rules fired.
func fillerBullets(f Features) []types.WhyBullet {
	known := 0
	for _, present := range []bool{
		f.Spread != nil, f.Depth != nil, f.Staleness != nil, f.VolProxy != nil,
		f.ImpactProxy != nil, f.TradeCount != nil, f.VolumeUSD != nil,
	} {
		if present {
			known++
		}
	}

	fillers := []types.WhyBullet{{
		Text:   fmt.Sprintf("%d of 7 market features were available", known),
		Metric: "features_available",
		Value:  float64(known),
	}}
	if f.VolumeUSD != nil {
		fillers = append(fillers, types.WhyBullet{
			Text:   fmt.Sprintf("$%.0f traded in the window", *f.VolumeUSD),
			Metric: "volume_usd",
			Value:  *f.VolumeUSD,
			Unit:   "USD",
		})
	}
	if f.TradeCount != nil {
		fillers = append(fillers, types.WhyBullet{
			Text:   fmt.Sprintf("%d trades in the window", *f.TradeCount),
			Metric: "trade_count",
			Value:  float64(*f.TradeCount),
		})
	}

	return fillers
}
