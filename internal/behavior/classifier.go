// Package behavior assigns markets to one of six behavioral archetypes from
// question keywords, category and a handful of numeric traits.
package behavior

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

const (
	keywordBonus    = 8.0
	keywordBonusCap = 24.0
	categoryBonus   = 15.0
	minConfidence   = 40.0
	maxConfidence   = 95.0
	fitInsideMax    = 20.0
	fitInsideSpan   = 10.0
	fitOutsideSlope = 0.5
)

// Market is the behavioral snapshot of a single market.
type Market struct {
	MarketID       string    `json:"marketId"`
	Question       string    `json:"question"`
	Category       string    `json:"category"`
	EndDate        time.Time `json:"endDate"`
	AvgSpread      float64   `json:"avgSpread"`
	AvgVolume24h   float64   `json:"avgVolume24h"`
	TradeCount     *int      `json:"tradeCount,omitempty"`
	UniqueTraders  *int      `json:"uniqueTraders,omitempty"`
	SpreadVariance *float64  `json:"spreadVariance,omitempty"`
}

// ClusterResult is the behavioral classification of a market.
type ClusterResult struct {
	MarketID    string              `json:"marketId"`
	Cluster     Cluster             `json:"cluster"`
	Dimensions  Dimensions          `json:"dimensions"`
	Confidence  float64             `json:"confidence"`
	Explanation string              `json:"explanation"`
	WhyBullets  []types.WhyBullet   `json:"whyBullets"`
	Scores      map[Cluster]float64 `json:"scores"`
	ComputedAt  time.Time           `json:"computedAt"`
}

// clusterScore is the fit of one archetype plus its keyword evidence.
type clusterScore struct {
	def             definition
	total           float64
	keywordMatches  []string
	categoryMatched bool
}

// Classify picks the archetype whose declared ranges best fit the market.
func Classify(market Market) ClusterResult {
	return classify(market, time.Now().UTC())
}

func classify(market Market, now time.Time) ClusterResult {
	dims := computeDimensions(market, now)
	text := newQuestionText(market.Question)
	category := normalizeCategory(market.Category)

	scores := make(map[Cluster]float64)
	var best *clusterScore
	for _, def := range definitions() {
		cs := scoreCluster(def, dims, text, category)
		scores[def.cluster] = scoring.RoundTo(cs.total, 2)
		if best == nil || cs.total > best.total {
			best = &cs
		}
	}

	info, _ := GetDisplayInfo(best.def.cluster)
	dominant := dims.dominant()

	return ClusterResult{
		MarketID:    market.MarketID,
		Cluster:     best.def.cluster,
		Dimensions:  dims,
		Confidence:  scoring.Clamp(scoring.Round(best.total), minConfidence, maxConfidence),
		Explanation: fmt.Sprintf("%s: %s. Dominant trait: %s (%.0f/100).", info.Label, info.Description, dominant.name, dominant.value),
		WhyBullets:  types.PadWhyBullets(clusterBullets(*best, dims, info), dimensionBullets(dims)),
		Scores:      scores,
		ComputedAt:  now,
	}
}

func scoreCluster(def definition, dims Dimensions, text questionText, category string) clusterScore {
	cs := clusterScore{def: def}

	cs.total += rangeFit(dims.InfoCadence, def.infoCadence)
	cs.total += rangeFit(dims.InfoStructure, def.infoStructure)
	cs.total += rangeFit(dims.LiquidityStability, def.liquidity)
	cs.total += rangeFit(dims.TimeToResolution, def.timeToResolution)
	cs.total += rangeFit(dims.ParticipantConcentration, def.concentration)

	for _, kw := range def.keywords {
		if text.matches(kw) {
			cs.keywordMatches = append(cs.keywordMatches, kw)
		}
	}
	cs.total += min(keywordBonus*float64(len(cs.keywordMatches)), keywordBonusCap)

	if category != "" && slices.Contains(def.categories, category) {
		cs.categoryMatched = true
		cs.total += categoryBonus
	}

	return cs
}

// rangeFit scores 10..20 inside the range, peaking at its midpoint, and a
// penalty proportional to the distance outside it.
func rangeFit(v float64, r Range) float64 {
	switch {
	case v < r.Min:
		return -fitOutsideSlope * (r.Min - v)
	case v > r.Max:
		return -fitOutsideSlope * (v - r.Max)
	}

	half := r.halfWidth()
	if half == 0 {
		return fitInsideMax
	}
	off := v - r.mid()
	if off < 0 {
		off = -off
	}
	return fitInsideMax - fitInsideSpan*off/half
}

// normalizeCategory lowercases and hyphenates a category so it compares
// equal to the archetype category keys.
func normalizeCategory(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "-")
}

func clusterBullets(cs clusterScore, dims Dimensions, info ClusterDisplayInfo) []types.WhyBullet {
	dominant := dims.dominant()
	bullets := []types.WhyBullet{{
		Text:   fmt.Sprintf("Dominant trait is %s at %.0f/100", dominant.name, dominant.value),
		Metric: dominant.metric,
		Value:  dominant.value,
		Unit:   "score",
	}}

	if n := len(cs.keywordMatches); n > 0 {
		bullets = append(bullets, types.WhyBullet{
			Text:   fmt.Sprintf("Question mentions %s", strings.Join(cs.keywordMatches, ", ")),
			Metric: "keyword_matches",
			Value:  float64(n),
		})
	}
	if cs.categoryMatched {
		bullets = append(bullets, types.WhyBullet{
			Text:   fmt.Sprintf("Category is typical of %s markets", strings.ToLower(info.Label)),
			Metric: "category_match",
			Value:  1,
		})
	}

	bullets = append(bullets, types.WhyBullet{
		Text:   fmt.Sprintf("Archetype fit score of %.1f", cs.total),
		Metric: "cluster_score",
		Value:  scoring.RoundTo(cs.total, 2),
	})

	return bullets
}

func dimensionBullets(dims Dimensions) []types.WhyBullet {
	list := dims.list()
	bullets := make([]types.WhyBullet, 0, len(list))
	for _, d := range list {
		bullets = append(bullets, types.WhyBullet{
			Text:   fmt.Sprintf("%s scored %.0f/100", strings.ToUpper(d.name[:1])+d.name[1:], d.value),
			Metric: d.metric,
			Value:  d.value,
			Unit:   "score",
		})
	}
	return bullets
}
