package sizing

import (
	"math"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

const (
	minPrice = 0.01
	maxPrice = 0.99
)

// RiskLevels are the exit prices around an entry.
type RiskLevels struct {
	Entry           float64 `json:"entry"`
	StopLoss        float64 `json:"stopLoss"`
	TakeProfit      float64 `json:"takeProfit"`
	RiskPerShare    float64 `json:"riskPerShare"`
	RewardPerShare  float64 `json:"rewardPerShare"`
	RiskRewardRatio float64 `json:"riskRewardRatio"`
}

// CalculateRiskLevels places a stop loss stopLossPct under entry and a take
// profit takeProfitPct over it. Prices stay within [0.01, 0.99].
func CalculateRiskLevels(entry, stopLossPct, takeProfitPct float64) (RiskLevels, error) {
	if err := validateProbability("entry", entry); err != nil {
		return RiskLevels{}, err
	}
	if math.IsNaN(stopLossPct) || stopLossPct <= 0 || stopLossPct >= 1 {
		return RiskLevels{}, types.NewInvalidArgument("stopLossPct", stopLossPct, "must be between 0 and 1")
	}
	if math.IsNaN(takeProfitPct) || math.IsInf(takeProfitPct, 0) || takeProfitPct <= 0 {
		return RiskLevels{}, types.NewInvalidArgument("takeProfitPct", takeProfitPct, "must be positive")
	}

	stop := math.Max(entry*(1-stopLossPct), minPrice)
	take := math.Min(entry*(1+takeProfitPct), maxPrice)

	risk := math.Max(entry-stop, 0)
	reward := math.Max(take-entry, 0)

	return RiskLevels{
		Entry:           scoring.RoundTo(entry, 4),
		StopLoss:        scoring.RoundTo(stop, 4),
		TakeProfit:      scoring.RoundTo(take, 4),
		RiskPerShare:    scoring.RoundTo(risk, 4),
		RewardPerShare:  scoring.RoundTo(reward, 4),
		RiskRewardRatio: scoring.RoundTo(scoring.Ratio(reward, risk), 2),
	}, nil
}
