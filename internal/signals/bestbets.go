// Package signals turns elite-trader activity in a market into a Best Bet
// recommendation.
package signals

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

const (
	// SignalTTL is how long a signal stays actionable after generation.
	SignalTTL = 48 * time.Hour

	minActivities = 2
	topTraders    = 5
)

// Side is the outcome a trader entered.
type Side string

// Outcome sides.
const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// SignalType grades signal strength.
type SignalType string

// Signal types.
const (
	TypeElite    SignalType = "elite"
	TypeStrong   SignalType = "strong"
	TypeModerate SignalType = "moderate"
	TypeWeak     SignalType = "weak"
)

// Action is what a follower should do with the signal.
type Action string

// Actions.
const (
	ActionCopyImmediately Action = "copy_immediately"
	ActionConsiderCopying Action = "consider_copying"
	ActionMonitor         Action = "monitor"
	ActionResearch        Action = "research"
	ActionIgnore          Action = "ignore"
)

// Level is a low/medium/high grade used for risk and urgency.
type Level string

// Levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// TraderActivity is one wallet's entry into the market.
type TraderActivity struct {
	WalletAddress string    `json:"walletAddress"`
	EliteScore    float64   `json:"eliteScore"`
	Side          Side      `json:"side"`
	PositionSize  float64   `json:"positionSize"`
	EntryPrice    float64   `json:"entryPrice"`
	Timestamp     time.Time `json:"timestamp"`
}

// BestBetsSignal is the consensus of elite traders in one market.
type BestBetsSignal struct {
	ID                string            `json:"id"`
	MarketID          string            `json:"marketId"`
	Question          string            `json:"question"`
	Category          string            `json:"category"`
	CurrentPrice      float64           `json:"currentPrice"`
	Liquidity         float64           `json:"liquidity"`
	ConsensusSide     Side              `json:"consensusSide"`
	ConsensusStrength float64           `json:"consensusStrength"`
	TraderCount       int               `json:"traderCount"`
	AvgEliteScore     float64           `json:"avgEliteScore"`
	TotalVolume       float64           `json:"totalVolume"`
	ConfidenceScore   float64           `json:"confidenceScore"`
	SignalType        SignalType        `json:"signalType"`
	Action            Action            `json:"action"`
	RiskLevel         Level             `json:"riskLevel"`
	Urgency           Level             `json:"urgency"`
	TopTraders        []TraderActivity  `json:"topTraders"`
	WhyBullets        []types.WhyBullet `json:"whyBullets"`
	GeneratedAt       time.Time         `json:"generatedAt"`
	ExpiresAt         time.Time         `json:"expiresAt"`
}

// GenerateBestBets builds a signal from trader activity. It returns nil when
// fewer than two traders are active.
func GenerateBestBets(
	marketID, question, category string,
	currentPrice, liquidity float64,
	activities []TraderActivity,
) *BestBetsSignal {
	return generate(marketID, question, category, currentPrice, liquidity, activities, time.Now().UTC())
}

func generate(
	marketID, question, category string,
	currentPrice, liquidity float64,
	activities []TraderActivity,
	now time.Time,
) *BestBetsSignal {
	if len(activities) < minActivities {
		return nil
	}

	side, strength, volume := consensus(activities)

	var eliteSum float64
	latest := activities[0].Timestamp
	for _, a := range activities {
		eliteSum += a.EliteScore
		if a.Timestamp.After(latest) {
			latest = a.Timestamp
		}
	}
	avgElite := eliteSum / float64(len(activities))
	age := now.Sub(latest)

	confidence := math.Min(100,
		traderCountPoints(len(activities))+
			math.Min(25, math.Max(0, avgElite*0.25))+
			math.Min(25, math.Max(0, (strength-50)/2))+
			recencyPoints(age)+
			liquidityPoints(liquidity),
	)
	confidence = scoring.Round(confidence)
	signalType, action := classify(confidence)

	return &BestBetsSignal{
		ID:                fmt.Sprintf("bb-%s-%s", marketID, side),
		MarketID:          marketID,
		Question:          question,
		Category:          category,
		CurrentPrice:      currentPrice,
		Liquidity:         liquidity,
		ConsensusSide:     side,
		ConsensusStrength: scoring.RoundTo(strength, 2),
		TraderCount:       len(activities),
		AvgEliteScore:     scoring.RoundTo(avgElite, 2),
		TotalVolume:       scoring.RoundTo(volume, 2),
		ConfidenceScore:   confidence,
		SignalType:        signalType,
		Action:            action,
		RiskLevel:         riskLevel(strength, len(activities), liquidity),
		Urgency:           urgency(age, strength),
		TopTraders:        top(activities, topTraders),
		WhyBullets:        bullets(side, strength, len(activities), avgElite, age),
		GeneratedAt:       now,
		ExpiresAt:         now.Add(SignalTTL),
	}
}

// consensus returns the side holding the most position volume and its share
// of volume in percent. Without volume it falls back to trader counts.
func consensus(activities []TraderActivity) (Side, float64, float64) {
	var yes, no float64
	var yesCount, noCount int
	for _, a := range activities {
		size := math.Max(0, a.PositionSize)
		if strings.EqualFold(string(a.Side), string(SideNo)) {
			no += size
			noCount++
			continue
		}
		yes += size
		yesCount++
	}

	volume := yes + no
	total := volume
	if total <= 0 {
		yes, no = float64(yesCount), float64(noCount)
		total = yes + no
	}

	if no > yes {
		return SideNo, 100 * no / total, volume
	}
	return SideYes, 100 * yes / total, volume
}

func traderCountPoints(n int) float64 {
	switch {
	case n >= 10:
		return 25
	case n >= 5:
		return 20
	case n >= 3:
		return 15
	default:
		return 10
	}
}

func recencyPoints(age time.Duration) float64 {
	switch {
	case age <= time.Hour:
		return 15
	case age <= 6*time.Hour:
		return 10
	case age <= 24*time.Hour:
		return 5
	default:
		return 0
	}
}

func liquidityPoints(liquidity float64) float64 {
	switch {
	case liquidity >= 100000:
		return 10
	case liquidity >= 50000:
		return 7
	case liquidity >= 10000:
		return 4
	default:
		return 0
	}
}

func classify(confidence float64) (SignalType, Action) {
	switch {
	case confidence >= 90:
		return TypeElite, ActionCopyImmediately
	case confidence >= 75:
		return TypeStrong, ActionConsiderCopying
	case confidence >= 50:
		return TypeModerate, ActionMonitor
	case confidence >= 25:
		return TypeWeak, ActionResearch
	default:
		return TypeWeak, ActionIgnore
	}
}

func riskLevel(strength float64, traders int, liquidity float64) Level {
	switch {
	case strength >= 80 && traders >= 5 && liquidity >= 50000:
		return LevelLow
	case strength < 65 || traders < 3 || liquidity < 10000:
		return LevelHigh
	default:
		return LevelMedium
	}
}

func urgency(age time.Duration, strength float64) Level {
	switch {
	case age <= time.Hour && strength >= 75:
		return LevelHigh
	case age <= 6*time.Hour:
		return LevelMedium
	default:
		return LevelLow
	}
}

// top returns the n highest elite scores, ties broken by wallet address.
func top(activities []TraderActivity, n int) []TraderActivity {
	sorted := make([]TraderActivity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EliteScore != sorted[j].EliteScore {
			return sorted[i].EliteScore > sorted[j].EliteScore
		}
		return sorted[i].WalletAddress < sorted[j].WalletAddress
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func bullets(side Side, strength float64, traders int, avgElite float64, age time.Duration) []types.WhyBullet {
	return types.PadWhyBullets([]types.WhyBullet{
		{
			Text:   fmt.Sprintf("%.0f%% of tracked volume is on %s", strength, strings.ToUpper(string(side))),
			Metric: "consensus_strength",
			Value:  scoring.RoundTo(strength, 2),
			Unit:   "%",
		},
		{
			Text:   fmt.Sprintf("%d tracked traders averaging an elite score of %.0f", traders, avgElite),
			Metric: "avg_elite_score",
			Value:  scoring.RoundTo(avgElite, 2),
		},
		{
			Text:   fmt.Sprintf("Most recent entry %.0f minutes ago", age.Minutes()),
			Metric: "minutes_since_last_entry",
			Value:  scoring.RoundTo(age.Minutes(), 1),
			Unit:   "minutes",
		},
	}, nil)
}
