package consistency

import (
	"fmt"
	"math"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// Label grades how well a pair's prices agree with its relationship.
type Label string

// Known consistency labels, best first.
const (
	LabelConsistent            Label = "consistent"
	LabelMinorDivergence       Label = "minor_divergence"
	LabelSignificantDivergence Label = "significant_divergence"
	LabelMajorDivergence       Label = "major_divergence"
)

// LabelFor maps a 0-100 score onto a consistency label.
func LabelFor(score float64) Label {
	switch {
	case score >= 80:
		return LabelConsistent
	case score >= 60:
		return LabelMinorDivergence
	case score >= 40:
		return LabelSignificantDivergence
	default:
		return LabelMajorDivergence
	}
}

// CheckResult is the consistency verdict for one related pair.
type CheckResult struct {
	MarketAID    string            `json:"marketAId"`
	MarketBID    string            `json:"marketBId"`
	RelationType RelationType      `json:"relationType"`
	Label        Label             `json:"label"`
	Score        float64           `json:"score"`
	Confidence   float64           `json:"confidence"`
	WhyBullets   []types.WhyBullet `json:"whyBullets"`
	ComputedAt   time.Time         `json:"computedAt"`
}

// CheckConsistency scores a pair against its detected relation.
func CheckConsistency(pair Pair, relation RelationResult, thresholds Thresholds) CheckResult {
	var (
		score   float64
		bullets []types.WhyBullet
	)

	switch relation.RelationType {
	case RelationInverse:
		score, bullets = checkInverse(pair)
	case RelationCalendarVariant:
		score, bullets = checkCalendar(pair, thresholds)
	case RelationMultiOutcome:
		score, bullets = checkMultiOutcome(pair)
	default:
		score, bullets = checkCorrelated(pair, thresholds)
	}

	score = scoring.Round(scoring.Clamp(score, 0, 100))

	return CheckResult{
		MarketAID:    pair.A.MarketID,
		MarketBID:    pair.B.MarketID,
		RelationType: relation.RelationType,
		Label:        LabelFor(score),
		Score:        score,
		Confidence:   relation.Confidence,
		WhyBullets:   types.PadWhyBullets(bullets, fillerBullets(pair, relation)),
		ComputedAt:   time.Now().UTC(),
	}
}

// ScanPairs checks every unordered pair of markets and returns results for
// the related ones, in input order.
func ScanPairs(markets []MarketSnapshot, thresholds Thresholds) []CheckResult {
	var results []CheckResult
	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			pair := Pair{A: markets[i], B: markets[j]}
			relation := DetectRelation(pair, thresholds)
			if relation == nil {
				continue
			}
			results = append(results, CheckConsistency(pair, *relation, thresholds))
		}
	}
	return results
}

func checkInverse(pair Pair) (float64, []types.WhyBullet) {
	sum := pair.A.Price + pair.B.Price
	dev := math.Abs(sum - 1)

	return 100 - 250*dev, []types.WhyBullet{
		{
			Text:       fmt.Sprintf("Opposite outcomes are priced at %.0f%% combined", sum*100),
			Metric:     "price_sum",
			Value:      scoring.RoundTo(sum, 4),
			Comparison: "= 1.00",
		},
		{
			Text:   fmt.Sprintf("Deviation from a fair book of %.1f points", dev*100),
			Metric: "sum_deviation",
			Value:  scoring.RoundTo(dev, 4),
		},
	}
}

func checkCalendar(pair Pair, t Thresholds) (float64, []types.WhyBullet) {
	earlier, later := pair.A, pair.B
	if later.EndDate.Before(earlier.EndDate) {
		earlier, later = later, earlier
	}

	violation := math.Max(0, earlier.Price-later.Price)
	spread := math.Abs(pair.A.Price - pair.B.Price)
	excess := math.Max(0, spread-t.CalendarSpread)

	bullets := []types.WhyBullet{{
		Text:       fmt.Sprintf("Deadlines differ by %.0f days with a %.1f point price gap", daysApart(earlier.EndDate, later.EndDate), spread*100),
		Metric:     "calendar_spread",
		Value:      scoring.RoundTo(spread, 4),
		Comparison: fmt.Sprintf("<= %.2f", t.CalendarSpread),
	}}
	if violation > 0 {
		bullets = append(bullets, types.WhyBullet{
			Text:   fmt.Sprintf("Earlier deadline is priced %.1f points above the later one", violation*100),
			Metric: "ordering_violation",
			Value:  scoring.RoundTo(violation, 4),
		})
	}

	return 100 - 200*violation - 150*excess, bullets
}

func checkMultiOutcome(pair Pair) (float64, []types.WhyBullet) {
	sum := pair.A.Price + pair.B.Price
	excess := math.Max(0, sum-1)

	return 100 - 300*excess, []types.WhyBullet{{
		Text:       fmt.Sprintf("Competing outcomes sum to %.0f%%", sum*100),
		Metric:     "outcome_sum",
		Value:      scoring.RoundTo(sum, 4),
		Comparison: "<= 1.00",
	}}
}

func checkCorrelated(pair Pair, t Thresholds) (float64, []types.WhyBullet) {
	div := math.Abs(pair.A.Price - pair.B.Price)
	excess := math.Max(0, div-t.CorrelatedDivergence)

	return 100 - 150*excess, []types.WhyBullet{{
		Text:       fmt.Sprintf("Related markets are %.1f points apart", div*100),
		Metric:     "price_divergence",
		Value:      scoring.RoundTo(div, 4),
		Comparison: fmt.Sprintf("<= %.2f", t.CorrelatedDivergence),
	}}
}

func fillerBullets(pair Pair, relation RelationResult) []types.WhyBullet {
	return []types.WhyBullet{
		{
			Text:   fmt.Sprintf("Questions share %.0f%% of their key terms", relation.Similarity*100),
			Metric: "similarity",
			Value:  relation.Similarity,
		},
		{
			Text:   fmt.Sprintf("Prices are %.2f and %.2f", pair.A.Price, pair.B.Price),
			Metric: "price_a",
			Value:  pair.A.Price,
		},
	}
}
