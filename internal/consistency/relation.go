// Package consistency detects relationships between pairs of markets and
// scores whether their prices agree with that relationship.
package consistency

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/mselser95/polymarket-insights/pkg/scoring"
)

// RelationType is how two markets are related.
type RelationType string

// Known relation types.
const (
	RelationCalendarVariant RelationType = "calendar_variant"
	RelationInverse         RelationType = "inverse"
	RelationMultiOutcome    RelationType = "multi_outcome"
	RelationCorrelated      RelationType = "correlated"
)

// MarketSnapshot is the slice of a market the checker needs.
type MarketSnapshot struct {
	MarketID string    `json:"marketId"`
	Question string    `json:"question"`
	Price    float64   `json:"price"` // Yes price, 0..1
	EndDate  time.Time `json:"endDate"`
	Category string    `json:"category"`
}

// Pair is two markets to compare.
type Pair struct {
	A MarketSnapshot `json:"marketA"`
	B MarketSnapshot `json:"marketB"`
}

// Thresholds configures relation detection and scoring.
type Thresholds struct {
	MinSimilarity          float64 `json:"minSimilarity"`
	CalendarSimilarity     float64 `json:"calendarSimilarity"`
	CalendarMinDays        float64 `json:"calendarMinDays"`
	CalendarMaxDays        float64 `json:"calendarMaxDays"`
	InverseSumTolerance    float64 `json:"inverseSumTolerance"`
	MultiOutcomeSimilarity float64 `json:"multiOutcomeSimilarity"`
	CalendarSpread         float64 `json:"calendarSpread"`
	CorrelatedDivergence   float64 `json:"correlatedDivergence"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSimilarity:          0.30,
		CalendarSimilarity:     0.60,
		CalendarMinDays:        7,
		CalendarMaxDays:        365,
		InverseSumTolerance:    0.10,
		MultiOutcomeSimilarity: 0.40,
		CalendarSpread:         0.15,
		CorrelatedDivergence:   0.20,
	}
}

// RelationResult describes a detected relationship.
type RelationResult struct {
	RelationType RelationType `json:"relationType"`
	Similarity   float64      `json:"similarity"`
	Confidence   float64      `json:"confidence"`
	DaysApart    float64      `json:"daysApart"`
	Reason       string       `json:"reason"`
}

//nolint:gochecknoglobals // read-only word sets
var (
	stopWords = map[string]struct{}{
		"a": {}, "an": {}, "the": {}, "will": {}, "be": {}, "by": {}, "in": {}, "on": {}, "of": {},
		"to": {}, "for": {}, "and": {}, "or": {}, "is": {}, "at": {}, "before": {}, "after": {},
		"than": {}, "this": {}, "that": {}, "with": {}, "who": {}, "what": {}, "does": {}, "do": {},
		"did": {}, "it": {}, "its": {}, "end": {}, "not": {}, "no": {}, "yes": {}, "won": {},
		"doesn": {}, "isn": {}, "can": {}, "any": {}, "more": {}, "less": {},
	}
	negationTokens  = []string{"not", "no", "never", "fail", "fails", "lose", "loses", "without"}
	negationPhrases = []string{"won't", "won’t", "doesn't", "doesn’t", "isn't", "isn’t", "can't", "can’t"}
)

// Tokenize lowercases a question and returns its content words.
func Tokenize(question string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// Similarity is the Jaccard index of the two questions' content words.
func Similarity(a, b string) float64 {
	ta, tb := Tokenize(a), Tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return scoring.Ratio(float64(intersection), float64(union))
}

func isNegated(question string) bool {
	lower := strings.ToLower(question)
	for _, p := range negationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, n := range negationTokens {
			if w == n {
				return true
			}
		}
	}
	return false
}

func daysApart(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return math.Abs(a.Sub(b).Hours()) / 24
}

func sameCategory(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// DetectRelation classifies how two markets are related. It returns nil when
// their questions are too dissimilar to be related.
func DetectRelation(pair Pair, thresholds Thresholds) *RelationResult {
	sim := Similarity(pair.A.Question, pair.B.Question)
	if sim < thresholds.MinSimilarity {
		return nil
	}

	days := daysApart(pair.A.EndDate, pair.B.EndDate)
	simScore := scoring.Round(sim * 100)
	rel := &RelationResult{
		Similarity: scoring.RoundTo(sim, 3),
		DaysApart:  scoring.RoundTo(days, 1),
	}

	switch {
	case sim >= thresholds.CalendarSimilarity &&
		days >= thresholds.CalendarMinDays && days <= thresholds.CalendarMaxDays:
		rel.RelationType = RelationCalendarVariant
		rel.Confidence = simScore
		rel.Reason = "same question with different deadlines"

	case isNegated(pair.A.Question) != isNegated(pair.B.Question) &&
		math.Abs(pair.A.Price+pair.B.Price-1) <= thresholds.InverseSumTolerance:
		dev := math.Abs(pair.A.Price + pair.B.Price - 1)
		rel.RelationType = RelationInverse
		rel.Confidence = scoring.Clamp(scoring.Round(simScore+(thresholds.InverseSumTolerance-dev)*100), 0, 100)
		rel.Reason = "opposite phrasing with prices summing near one"

	case sameCategory(pair.A.Category, pair.B.Category) && sim >= thresholds.MultiOutcomeSimilarity:
		rel.RelationType = RelationMultiOutcome
		rel.Confidence = simScore
		rel.Reason = "competing outcomes in the same category"

	default:
		rel.RelationType = RelationCorrelated
		rel.Confidence = scoring.Round(simScore * 0.8)
		rel.Reason = "overlapping subject matter"
	}

	return rel
}
