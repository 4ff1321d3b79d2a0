// Package traderscore computes the composite elite score of a wallet.
package traderscore

import (
	"fmt"
	"sort"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
)

// Sub-score caps. The elite score is their sum.
const (
	MaxPerformance = 40.0
	MaxConsistency = 30.0
	MaxExperience  = 20.0
	MaxRisk        = 10.0
)

// Recommendation floors, applied on top of the elite tier.
const (
	recommendMinProfit  = 10000.0
	recommendMinWinRate = 55.0
	recommendMinTrades  = 50
)

// Tier buckets the elite score.
type Tier string

// Trader tiers.
const (
	TierElite      Tier = "elite"
	TierStrong     Tier = "strong"
	TierModerate   Tier = "moderate"
	TierDeveloping Tier = "developing"
	TierLimited    Tier = "limited"
)

// RiskProfile describes how a trader sizes and loses.
type RiskProfile string

// Risk profiles.
const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// Metrics is a wallet's performance record. Rates and drawdowns are percents.
type Metrics struct {
	WinRate             float64 `json:"winRate"`
	ProfitFactor        float64 `json:"profitFactor"`
	SharpeRatio         float64 `json:"sharpeRatio"`
	MaxDrawdown         float64 `json:"maxDrawdown"`
	TotalProfit         float64 `json:"totalProfit"`
	TotalVolume         float64 `json:"totalVolume"`
	TradeCount          int     `json:"tradeCount"`
	AvgTradeSize        float64 `json:"avgTradeSize"`
	MarketsTraded       int     `json:"marketsTraded"`
	ActiveDays          int     `json:"activeDays"`
	LongestLosingStreak int     `json:"longestLosingStreak"`
}

// Score is the composite assessment of a wallet.
type Score struct {
	WalletAddress    string      `json:"walletAddress"`
	EliteScore       float64     `json:"eliteScore"`
	PerformanceScore float64     `json:"performanceScore"`
	ConsistencyScore float64     `json:"consistencyScore"`
	ExperienceScore  float64     `json:"experienceScore"`
	RiskScore        float64     `json:"riskScore"`
	Tier             Tier        `json:"tier"`
	RiskProfile      RiskProfile `json:"riskProfile"`
	IsRecommended    bool        `json:"isRecommended"`
	Strengths        []string    `json:"strengths"`
	Warnings         []string    `json:"warnings"`
	ComputedAt       time.Time   `json:"computedAt"`
}

// Calculate scores a wallet from its metrics.
func Calculate(walletAddress string, m Metrics) Score {
	performance := scoring.Clamp(performanceScore(m), 0, MaxPerformance)
	consistency := scoring.Clamp(consistencyScore(m), 0, MaxConsistency)
	experience := scoring.Clamp(experienceScore(m), 0, MaxExperience)
	risk := scoring.Clamp(riskScore(m), 0, MaxRisk)

	elite := performance + consistency + experience + risk
	tier := TierFor(elite)
	recommended := tier == TierElite &&
		m.TotalProfit >= recommendMinProfit &&
		m.WinRate >= recommendMinWinRate &&
		m.TradeCount >= recommendMinTrades

	return Score{
		WalletAddress:    walletAddress,
		EliteScore:       elite,
		PerformanceScore: performance,
		ConsistencyScore: consistency,
		ExperienceScore:  experience,
		RiskScore:        risk,
		Tier:             tier,
		RiskProfile:      riskProfile(m),
		IsRecommended:    recommended,
		Strengths:        strengths(m),
		Warnings:         warnings(m),
		ComputedAt:       time.Now().UTC(),
	}
}

// TierFor maps an elite score onto a tier.
func TierFor(elite float64) Tier {
	switch {
	case elite >= 80:
		return TierElite
	case elite >= 60:
		return TierStrong
	case elite >= 40:
		return TierModerate
	case elite >= 20:
		return TierDeveloping
	default:
		return TierLimited
	}
}

// Rank orders scores by elite score, highest first, and keeps at most limit.
// A non-positive limit keeps all of them. Ties order by wallet address.
func Rank(scores []Score, limit int) []Score {
	ranked := make([]Score, len(scores))
	copy(ranked, scores)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].EliteScore != ranked[j].EliteScore {
			return ranked[i].EliteScore > ranked[j].EliteScore
		}
		return ranked[i].WalletAddress < ranked[j].WalletAddress
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// volatility is the drawdown-weighted loss rate used for risk scoring.
func volatility(m Metrics) float64 {
	return m.MaxDrawdown * (1 - m.WinRate/100)
}

func performanceScore(m Metrics) float64 {
	var s float64

	switch {
	case m.WinRate >= 65:
		s += 15
	case m.WinRate >= 55:
		s += 10
	case m.WinRate >= 50:
		s += 6
	case m.WinRate >= 45:
		s += 3
	}

	switch {
	case m.ProfitFactor >= 2.0:
		s += 15
	case m.ProfitFactor >= 1.5:
		s += 10
	case m.ProfitFactor >= 1.2:
		s += 6
	case m.ProfitFactor >= 1.0:
		s += 2
	}

	switch {
	case m.TotalProfit >= 50000:
		s += 10
	case m.TotalProfit >= 10000:
		s += 7
	case m.TotalProfit >= 1000:
		s += 4
	case m.TotalProfit > 0:
		s++
	}

	return s
}

func consistencyScore(m Metrics) float64 {
	var s float64

	switch {
	case m.SharpeRatio >= 2:
		s += 15
	case m.SharpeRatio >= 1.5:
		s += 11
	case m.SharpeRatio >= 1:
		s += 8
	case m.SharpeRatio >= 0.5:
		s += 4
	}

	switch {
	case m.MaxDrawdown <= 10:
		s += 10
	case m.MaxDrawdown <= 20:
		s += 7
	case m.MaxDrawdown <= 35:
		s += 4
	}

	switch {
	case m.LongestLosingStreak <= 3:
		s += 5
	case m.LongestLosingStreak <= 6:
		s += 3
	}

	return s
}

func experienceScore(m Metrics) float64 {
	var s float64

	switch {
	case m.TradeCount >= 500:
		s += 10
	case m.TradeCount >= 200:
		s += 7
	case m.TradeCount >= 50:
		s += 4
	case m.TradeCount >= 10:
		s++
	}

	switch {
	case m.ActiveDays >= 180:
		s += 5
	case m.ActiveDays >= 90:
		s += 3
	case m.ActiveDays >= 30:
		s++
	}

	switch {
	case m.MarketsTraded >= 50:
		s += 5
	case m.MarketsTraded >= 20:
		s += 3
	case m.MarketsTraded >= 5:
		s++
	}

	return s
}

func riskScore(m Metrics) float64 {
	switch v := volatility(m); {
	case v <= 5:
		return 10
	case v <= 10:
		return 7
	case v <= 20:
		return 4
	case v <= 30:
		return 2
	default:
		return 0
	}
}

func riskProfile(m Metrics) RiskProfile {
	v := volatility(m)
	switch {
	case v >= 20 || m.AvgTradeSize >= 5000:
		return RiskAggressive
	case v <= 8 && m.AvgTradeSize <= 1000:
		return RiskConservative
	default:
		return RiskModerate
	}
}

func strengths(m Metrics) []string {
	out := []string{}
	if m.WinRate >= 60 {
		out = append(out, fmt.Sprintf("High win rate (%.0f%%)", m.WinRate))
	}
	if m.ProfitFactor >= 2 {
		out = append(out, fmt.Sprintf("Wins outweigh losses %.1f to 1", m.ProfitFactor))
	}
	if m.SharpeRatio >= 1.5 {
		out = append(out, "Strong risk-adjusted returns")
	}
	if m.MaxDrawdown <= 10 {
		out = append(out, "Shallow drawdowns")
	}
	if m.TradeCount >= 200 {
		out = append(out, fmt.Sprintf("Extensive track record (%d trades)", m.TradeCount))
	}
	if m.TotalProfit >= 50000 {
		out = append(out, fmt.Sprintf("$%.0f realized profit", m.TotalProfit))
	}
	return out
}

func warnings(m Metrics) []string {
	out := []string{}
	if m.MaxDrawdown >= 40 {
		out = append(out, fmt.Sprintf("Deep drawdown of %.0f%%", m.MaxDrawdown))
	}
	if m.WinRate < 45 {
		out = append(out, fmt.Sprintf("Low win rate (%.0f%%)", m.WinRate))
	}
	if m.TradeCount < 20 {
		out = append(out, "Limited track record")
	}
	if m.ProfitFactor < 1 {
		out = append(out, "Losses outweigh wins")
	}
	if m.LongestLosingStreak >= 8 {
		out = append(out, fmt.Sprintf("Losing streak of %d trades", m.LongestLosingStreak))
	}
	if m.AvgTradeSize >= 10000 {
		out = append(out, "Very large position sizes")
	}
	return out
}
