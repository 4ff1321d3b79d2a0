// Package sizing computes Kelly-criterion position sizes and the risk
// metrics that go with them.
package sizing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

const (
	// MaxKellyFraction caps full Kelly before the risk multiplier is applied.
	MaxKellyFraction = 0.25
	// MaxWinProbability bounds the simple variant's odds + edge.
	MaxWinProbability = 0.99

	DefaultStopLossPct   = 0.15
	DefaultTakeProfitPct = 0.30

	minRiskReward = 1.5
	minEdge       = 0.02
	maxRuin       = 0.05
	minSharpe     = 0.1
	skipWarnings  = 3
)

// RiskTolerance scales full Kelly down to the bet fraction.
type RiskTolerance string

// Risk tolerances.
const (
	ToleranceAggressive   RiskTolerance = "aggressive"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceConservative RiskTolerance = "conservative"
)

// Multiplier is the share of capped Kelly this tolerance bets.
func (r RiskTolerance) Multiplier() (float64, bool) {
	switch r {
	case ToleranceAggressive:
		return 0.5, true
	case ToleranceModerate:
		return 0.25, true
	case ToleranceConservative:
		return 0.125, true
	default:
		return 0, false
	}
}

// Recommendation is the sizing verdict.
type Recommendation string

// Recommendations.
const (
	RecommendAggressive   Recommendation = "aggressive"
	RecommendModerate     Recommendation = "moderate"
	RecommendConservative Recommendation = "conservative"
	RecommendSkip         Recommendation = "skip"
)

// KellyInputs drives the advanced calculator.
type KellyInputs struct {
	Bankroll          float64       `json:"bankroll" validate:"gt=0"`
	Odds              float64       `json:"odds" validate:"gt=0,lt=1"`
	WinProbability    float64       `json:"winProbability" validate:"gt=0,lt=1"`
	RiskTolerance     RiskTolerance `json:"riskTolerance" validate:"omitempty,oneof=aggressive moderate conservative"`
	AvailableBankroll *float64      `json:"availableBankroll,omitempty"`
	MaxPositionPct    *float64      `json:"maxPositionPct,omitempty"`
	StopLossPct       *float64      `json:"stopLossPct,omitempty"`
	TakeProfitPct     *float64      `json:"takeProfitPct,omitempty"`
}

// PositionSize is a sized position with its risk profile.
type PositionSize struct {
	Bankroll            float64        `json:"bankroll"`
	PositionAmount      float64        `json:"positionAmount"`
	Shares              float64        `json:"shares"`
	WinProbability      float64        `json:"winProbability"`
	Edge                float64        `json:"edge"`
	NetOdds             float64        `json:"netOdds"`
	FullKellyPercentage float64        `json:"fullKellyPercentage"`
	KellyPercentage     float64        `json:"kellyPercentage"`
	RiskPercentage      float64        `json:"riskPercentage"`
	RiskLevels          RiskLevels     `json:"riskLevels"`
	ExpectedValue       float64        `json:"expectedValue"`
	RiskRewardRatio     float64        `json:"riskRewardRatio"`
	ProbabilityOfRuin   float64        `json:"probabilityOfRuin"`
	SharpeRatio         float64        `json:"sharpeRatio"`
	Recommendation      Recommendation `json:"recommendation"`
	Warnings            []string       `json:"warnings"`
}

// CalculateKellyPosition sizes a bet at market odds with an estimated edge.
// The win probability is odds + edge, capped at MaxWinProbability.
func CalculateKellyPosition(bankroll, odds, edge float64, riskTolerance RiskTolerance) (PositionSize, error) {
	if err := validateBankroll("bankroll", bankroll); err != nil {
		return PositionSize{}, err
	}
	if err := validateProbability("odds", odds); err != nil {
		return PositionSize{}, err
	}
	if math.IsNaN(edge) || math.IsInf(edge, 0) || edge < 0 {
		return PositionSize{}, types.NewInvalidArgument("edge", edge, "must be non-negative")
	}
	multiplier, ok := riskTolerance.Multiplier()
	if !ok {
		return PositionSize{}, fmt.Errorf("unknown risk tolerance %q: %w", riskTolerance, types.ErrInvalidArgument)
	}

	return size(sizingParams{
		bankroll:      bankroll,
		odds:          odds,
		winProb:       math.Min(odds+edge, MaxWinProbability),
		multiplier:    multiplier,
		kellyCap:      MaxKellyFraction,
		stopLossPct:   DefaultStopLossPct,
		takeProfitPct: DefaultTakeProfitPct,
	})
}

// CalculateAdvancedKelly sizes a bet from an explicit win probability and
// optional overrides. A set AvailableBankroll replaces Bankroll as the base.
func CalculateAdvancedKelly(in KellyInputs) (PositionSize, error) {
	if err := validateBankroll("bankroll", in.Bankroll); err != nil {
		return PositionSize{}, err
	}
	if err := validateProbability("odds", in.Odds); err != nil {
		return PositionSize{}, err
	}
	if err := validateProbability("winProbability", in.WinProbability); err != nil {
		return PositionSize{}, err
	}
	multiplier, ok := in.RiskTolerance.Multiplier()
	if !ok {
		return PositionSize{}, fmt.Errorf("unknown risk tolerance %q: %w", in.RiskTolerance, types.ErrInvalidArgument)
	}

	params := sizingParams{
		bankroll:      in.Bankroll,
		odds:          in.Odds,
		winProb:       in.WinProbability,
		multiplier:    multiplier,
		kellyCap:      MaxKellyFraction,
		stopLossPct:   DefaultStopLossPct,
		takeProfitPct: DefaultTakeProfitPct,
	}

	if in.AvailableBankroll != nil {
		if *in.AvailableBankroll <= 0 {
			return PositionSize{}, types.NewInvalidArgument("availableBankroll", *in.AvailableBankroll, "bankroll is depleted")
		}
		params.bankroll = math.Min(*in.AvailableBankroll, in.Bankroll)
	}
	if in.MaxPositionPct != nil {
		if *in.MaxPositionPct <= 0 || *in.MaxPositionPct > 1 {
			return PositionSize{}, types.NewInvalidArgument("maxPositionPct", *in.MaxPositionPct, "must be in (0, 1]")
		}
		params.kellyCap = *in.MaxPositionPct
	}
	if in.StopLossPct != nil {
		params.stopLossPct = *in.StopLossPct
	}
	if in.TakeProfitPct != nil {
		params.takeProfitPct = *in.TakeProfitPct
	}

	return size(params)
}

type sizingParams struct {
	bankroll      float64
	odds          float64
	winProb       float64
	multiplier    float64
	kellyCap      float64
	stopLossPct   float64
	takeProfitPct float64
}

func size(p sizingParams) (PositionSize, error) {
	levels, err := CalculateRiskLevels(p.odds, p.stopLossPct, p.takeProfitPct)
	if err != nil {
		return PositionSize{}, err
	}

	b := (1 - p.odds) / p.odds
	win := p.winProb
	lose := 1 - win
	fullKelly := (b*win - lose) / b

	capped := math.Min(fullKelly, p.kellyCap)
	fraction := math.Max(0, capped*p.multiplier)
	edgePerDollar := b*win - lose

	var ruin float64
	switch {
	case fraction <= 0:
		ruin = 0
	case win <= lose:
		ruin = 1
	default:
		ruin = math.Pow(lose/win, 1/fraction)
	}

	sharpe := edgePerDollar / ((b + 1) * math.Sqrt(win*lose))
	edge := win - p.odds

	var warnings []string
	if levels.RiskRewardRatio < minRiskReward {
		warnings = append(warnings, fmt.Sprintf("Risk/reward of %.2f is below %.1f", levels.RiskRewardRatio, minRiskReward))
	}
	if edge < minEdge {
		warnings = append(warnings, fmt.Sprintf("Edge of %.1f%% is below %.0f%%", edge*100, minEdge*100))
	}
	if ruin > maxRuin {
		warnings = append(warnings, fmt.Sprintf("Probability of ruin of %.1f%% exceeds %.0f%%", ruin*100, maxRuin*100))
	}
	if sharpe < minSharpe {
		warnings = append(warnings, fmt.Sprintf("Sharpe ratio of %.2f is below %.1f", sharpe, minSharpe))
	}
	if fullKelly > p.kellyCap {
		warnings = append(warnings, fmt.Sprintf("Full Kelly of %.1f%% capped at %.0f%%", fullKelly*100, p.kellyCap*100))
	}

	rec := recommend(fullKelly, fraction, sharpe, len(warnings))
	if rec == RecommendSkip {
		fraction = 0
	}

	position := cents(p.bankroll * fraction)

	return PositionSize{
		Bankroll:            cents(p.bankroll),
		PositionAmount:      position,
		Shares:              scoring.RoundTo(position/p.odds, 2),
		WinProbability:      scoring.RoundTo(win, 4),
		Edge:                scoring.RoundTo(edge, 4),
		NetOdds:             scoring.RoundTo(b, 4),
		FullKellyPercentage: scoring.RoundTo(fullKelly*100, 2),
		KellyPercentage:     scoring.RoundTo(math.Max(0, capped)*100, 2),
		RiskPercentage:      scoring.RoundTo(fraction*100, 3),
		RiskLevels:          levels,
		ExpectedValue:       cents(position * edgePerDollar),
		RiskRewardRatio:     levels.RiskRewardRatio,
		ProbabilityOfRuin:   scoring.RoundTo(ruin, 6),
		SharpeRatio:         scoring.RoundTo(sharpe, 4),
		Recommendation:      rec,
		Warnings:            append([]string{}, warnings...),
	}, nil
}

func recommend(fullKelly, fraction, sharpe float64, warnings int) Recommendation {
	switch {
	case fullKelly <= 0 || warnings >= skipWarnings:
		return RecommendSkip
	case warnings == 0 && fraction >= 0.05 && sharpe >= 0.3:
		return RecommendAggressive
	case warnings <= 1 && fraction >= 0.02:
		return RecommendModerate
	default:
		return RecommendConservative
	}
}

func validateBankroll(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return types.NewInvalidArgument(field, v, "must be positive")
	}
	return nil
}

func validateProbability(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return types.NewInvalidArgument(field, v, "must be between 0 and 1")
	}
	return nil
}

// cents rounds a currency amount to two decimal places.
func cents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
