// Package participation describes the historical structure of a market side:
// how clean its trading setup has been and who has been trading it. Nothing
// here predicts outcomes.
package participation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// Input is the per-market-side participation snapshot.
type Input struct {
	MarketID               string           `json:"marketId"`
	Side                   string           `json:"side"`
	Liquidity              float64          `json:"liquidity"`
	Spread                 float64          `json:"spread"`
	Volume24h              float64          `json:"volume24h"`
	Volume7dAvg            *float64         `json:"volume7dAvg,omitempty"`
	LiquidityChange24h     *float64         `json:"liquidityChange24h,omitempty"` // fractional change
	Depth                  *float64         `json:"depth,omitempty"`
	PriceVolatility        *float64         `json:"priceVolatility,omitempty"`
	UniqueTraders          int              `json:"uniqueTraders"`
	AvgTradeSize           float64          `json:"avgTradeSize"`
	LargeTraderVolumeShare *float64         `json:"largeTraderVolumeShare,omitempty"` // percent
	LargeTradeRatio        *float64         `json:"largeTradeRatio,omitempty"`        // fraction of trades
	WalletBreakdown        *WalletBreakdown `json:"walletBreakdown,omitempty"`
}

// WalletBreakdown is the share of volume by wallet size, in percent.
type WalletBreakdown struct {
	Large float64 `json:"large"`
	Mid   float64 `json:"mid"`
	Small float64 `json:"small"`
}

// Summary is the headline participation pattern.
type Summary string

// Participation summaries.
const (
	SummaryWhaleLed  Summary = "whale_led"
	SummaryBalanced  Summary = "balanced"
	SummaryRetailLed Summary = "retail_led"
)

// Result is the participation structure of a market side.
type Result struct {
	MarketID                string            `json:"marketId"`
	Side                    string            `json:"side"`
	SetupQualityScore       float64           `json:"setupQualityScore"`
	SetupQualityBand        SetupBand         `json:"setupQualityBand"`
	ParticipantQualityScore float64           `json:"participantQualityScore"`
	ParticipantQualityBand  ParticipantBand   `json:"participantQualityBand"`
	WalletBreakdown         WalletBreakdown   `json:"walletBreakdown"`
	BreakdownEstimated      bool              `json:"breakdownEstimated"`
	ParticipationSummary    Summary           `json:"participationSummary"`
	BehaviorInsight         string            `json:"behaviorInsight"`
	WhyBullets              []types.WhyBullet `json:"whyBullets"`
	ComputedAt              time.Time         `json:"computedAt"`
}

// contribution is one signed adjustment with its evidence.
type contribution struct {
	points float64
	bullet types.WhyBullet
}

type tally struct {
	score float64
	parts []contribution
}

func (t *tally) add(points float64, bullet types.WhyBullet) {
	t.score += points
	t.parts = append(t.parts, contribution{points: points, bullet: bullet})
}

// Analyze scores setup and participant quality and normalizes the wallet breakdown.
func Analyze(input Input) Result {
	setup := setupQuality(input)
	participant := participantQuality(input)

	setupScore := scoring.Round(scoring.Clamp(setup.score, 0, 100))
	participantScore := scoring.Round(scoring.Clamp(participant.score, 0, 100))
	setupBand := SetupBandFor(setupScore)

	breakdown, estimated := walletBreakdown(input)
	summary := SummaryFor(breakdown)

	return Result{
		MarketID:                input.MarketID,
		Side:                    input.Side,
		SetupQualityScore:       setupScore,
		SetupQualityBand:        setupBand,
		ParticipantQualityScore: participantScore,
		ParticipantQualityBand:  ParticipantBandFor(participantScore),
		WalletBreakdown:         breakdown,
		BreakdownEstimated:      estimated,
		ParticipationSummary:    summary,
		BehaviorInsight:         BehaviorInsight(summary, setupBand),
		WhyBullets:              types.PadWhyBullets(strongest(setup, participant), breakdownBullets(breakdown, estimated)),
		ComputedAt:              time.Now().UTC(),
	}
}

func setupQuality(in Input) *tally {
	t := &tally{score: 50}

	switch {
	case in.Liquidity >= 100000:
		t.add(15, usd("Deep liquidity", "liquidity", in.Liquidity))
	case in.Liquidity >= 25000:
		t.add(8, usd("Solid liquidity", "liquidity", in.Liquidity))
	case in.Liquidity < 5000:
		t.add(-15, usd("Thin liquidity", "liquidity", in.Liquidity))
	}

	spread := types.WhyBullet{Metric: "spread", Value: in.Spread}
	switch {
	case in.Spread <= 0.01:
		spread.Text = fmt.Sprintf("Spread has held at %.1f¢", in.Spread*100)
		t.add(10, spread)
	case in.Spread <= 0.03:
		spread.Text = fmt.Sprintf("Moderate spread of %.1f¢", in.Spread*100)
		t.add(5, spread)
	case in.Spread >= 0.08:
		spread.Text = fmt.Sprintf("Very wide spread of %.1f¢", in.Spread*100)
		t.add(-15, spread)
	case in.Spread >= 0.05:
		spread.Text = fmt.Sprintf("Wide spread of %.1f¢", in.Spread*100)
		t.add(-8, spread)
	}

	if in.Volume7dAvg != nil && *in.Volume7dAvg > 0 {
		ratio := in.Volume24h / *in.Volume7dAvg
		bullet := types.WhyBullet{Metric: "volume_consistency", Value: scoring.RoundTo(ratio, 2), Unit: "x"}
		switch {
		case ratio >= 0.7 && ratio <= 1.5:
			bullet.Text = "Daily volume in line with its weekly average"
			t.add(8, bullet)
		case ratio > 3 || ratio < 0.3:
			bullet.Text = fmt.Sprintf("Daily volume is %.1fx its weekly average", ratio)
			t.add(-10, bullet)
		}
	}

	if in.LiquidityChange24h != nil {
		change := math.Abs(*in.LiquidityChange24h)
		bullet := types.WhyBullet{Metric: "liquidity_change_24h", Value: scoring.RoundTo(*in.LiquidityChange24h, 4)}
		switch {
		case change <= 0.1:
			bullet.Text = "Liquidity steady over the last day"
			t.add(7, bullet)
		case change >= 0.4:
			bullet.Text = fmt.Sprintf("Liquidity shifted %.0f%% in a day", change*100)
			t.add(-10, bullet)
		}
	}

	if in.Depth != nil {
		switch d := *in.Depth; {
		case d >= 20000:
			t.add(7, usd("Deep book near the touch", "depth", d))
		case d >= 5000:
			t.add(3, usd("Reasonable depth near the touch", "depth", d))
		case d < 1000:
			t.add(-7, usd("Shallow book near the touch", "depth", d))
		}
	}

	if in.PriceVolatility != nil {
		bullet := types.WhyBullet{Metric: "price_volatility", Value: *in.PriceVolatility}
		switch v := *in.PriceVolatility; {
		case v <= 0.02:
			bullet.Text = "Price has been stable"
			t.add(5, bullet)
		case v >= 0.1:
			bullet.Text = "Price has swung widely"
			t.add(-10, bullet)
		}
	}

	return t
}

func participantQuality(in Input) *tally {
	t := &tally{score: 30}

	if in.LargeTraderVolumeShare != nil {
		share := *in.LargeTraderVolumeShare
		bullet := types.WhyBullet{
			Text:   fmt.Sprintf("Large traders account for %.0f%% of volume", share),
			Metric: "large_trader_volume_share",
			Value:  share,
			Unit:   "%",
		}
		switch {
		case share >= 60:
			t.add(25, bullet)
		case share >= 40:
			t.add(15, bullet)
		case share >= 20:
			t.add(5, bullet)
		}
	}

	traders := types.WhyBullet{
		Text:   fmt.Sprintf("%d unique traders", in.UniqueTraders),
		Metric: "unique_traders",
		Value:  float64(in.UniqueTraders),
	}
	switch n := in.UniqueTraders; {
	case n >= 500:
		t.add(15, traders)
	case n >= 100:
		t.add(10, traders)
	case n >= 25:
		t.add(5, traders)
	case n < 10:
		t.add(-10, traders)
	}

	if in.LargeTradeRatio != nil {
		ratio := *in.LargeTradeRatio
		bullet := types.WhyBullet{
			Text:   fmt.Sprintf("%.0f%% of trades were large", ratio*100),
			Metric: "large_trade_ratio",
			Value:  ratio,
		}
		switch {
		case ratio >= 0.3:
			t.add(15, bullet)
		case ratio >= 0.1:
			t.add(8, bullet)
		}
	}

	switch v := in.Volume24h; {
	case v >= 100000:
		t.add(15, usd("Heavy daily volume", "volume_24h", v))
	case v >= 20000:
		t.add(8, usd("Active daily volume", "volume_24h", v))
	case v < 1000:
		t.add(-5, usd("Light daily volume", "volume_24h", v))
	}

	return t
}

// strongest returns the evidence behind the largest adjustments across both scores.
func strongest(tallies ...*tally) []types.WhyBullet {
	var parts []contribution
	for _, t := range tallies {
		parts = append(parts, t.parts...)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return math.Abs(parts[i].points) > math.Abs(parts[j].points)
	})

	bullets := make([]types.WhyBullet, 0, len(parts))
	for _, p := range parts {
		bullets = append(bullets, p.bullet)
	}
	return bullets
}

func usd(label, metric string, v float64) types.WhyBullet {
	return types.WhyBullet{
		Text:   fmt.Sprintf("%s ($%.0f)", label, v),
		Metric: metric,
		Value:  v,
		Unit:   "USD",
	}
}

// walletBreakdown uses the supplied breakdown when present, otherwise
// estimates one from average trade size and trader count.
func walletBreakdown(in Input) (WalletBreakdown, bool) {
	if in.WalletBreakdown != nil {
		return normalize(*in.WalletBreakdown), false
	}

	var raw WalletBreakdown
	switch s := in.AvgTradeSize; {
	case s >= 2000:
		raw = WalletBreakdown{Large: 55, Mid: 30, Small: 15}
	case s >= 500:
		raw = WalletBreakdown{Large: 30, Mid: 40, Small: 30}
	case s >= 100:
		raw = WalletBreakdown{Large: 15, Mid: 35, Small: 50}
	default:
		raw = WalletBreakdown{Large: 5, Mid: 25, Small: 70}
	}
	if in.UniqueTraders < 20 && raw.Small >= 10 {
		raw.Large += 10
		raw.Small -= 10
	}

	return normalize(raw), true
}

// normalize rescales to whole percentages summing to exactly 100. Rounding
// leftovers land in Small.
func normalize(b WalletBreakdown) WalletBreakdown {
	large := math.Max(0, b.Large)
	mid := math.Max(0, b.Mid)
	small := math.Max(0, b.Small)

	total := large + mid + small
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return WalletBreakdown{Small: 100}
	}

	out := WalletBreakdown{
		Large: math.Round(large / total * 100),
		Mid:   math.Round(mid / total * 100),
	}
	out.Small = 100 - out.Large - out.Mid
	if out.Small < 0 {
		out.Mid += out.Small
		out.Small = 0
	}
	return out
}

// SummaryFor names the participation pattern of a breakdown.
func SummaryFor(b WalletBreakdown) Summary {
	switch {
	case b.Large >= 50:
		return SummaryWhaleLed
	case b.Small >= 60:
		return SummaryRetailLed
	default:
		return SummaryBalanced
	}
}

func breakdownBullets(b WalletBreakdown, estimated bool) []types.WhyBullet {
	source := "reported"
	if estimated {
		source = "estimated"
	}
	return []types.WhyBullet{
		{
			Text:   fmt.Sprintf("Large wallets hold %.0f%% of %s volume", b.Large, source),
			Metric: "large_wallet_share",
			Value:  b.Large,
			Unit:   "%",
		},
		{
			Text:   fmt.Sprintf("Small wallets hold %.0f%% of %s volume", b.Small, source),
			Metric: "small_wallet_share",
			Value:  b.Small,
			Unit:   "%",
		},
	}
}
