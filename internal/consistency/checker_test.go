package consistency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

func snapshot(id, question string, price float64) MarketSnapshot {
	return MarketSnapshot{MarketID: id, Question: question, Price: price}
}

func TestDetectRelation(t *testing.T) {
	march := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		pair Pair
		want RelationType
	}{
		{
			name: "calendar-variant",
			pair: Pair{
				A: MarketSnapshot{MarketID: "a", Question: "Will Bitcoin hit $100k in March?", Price: 0.3, EndDate: march},
				B: MarketSnapshot{MarketID: "b", Question: "Will Bitcoin hit $100k in June?", Price: 0.4, EndDate: june},
			},
			want: RelationCalendarVariant,
		},
		{
			name: "inverse",
			pair: Pair{
				A: snapshot("a", "Will the Fed cut rates in June?", 0.62),
				B: snapshot("b", "Will the Fed not cut rates in June?", 0.40),
			},
			want: RelationInverse,
		},
		{
			name: "multi-outcome",
			pair: Pair{
				A: MarketSnapshot{MarketID: "a", Question: "Will Trump win the 2028 election?", Price: 0.5, Category: "Politics"},
				B: MarketSnapshot{MarketID: "b", Question: "Will Newsom win the 2028 election?", Price: 0.6, Category: "politics"},
			},
			want: RelationMultiOutcome,
		},
		{
			name: "correlated",
			pair: Pair{
				A: snapshot("a", "Will Trump win the 2028 election?", 0.2),
				B: snapshot("b", "Will Newsom win the 2028 election?", 0.7),
			},
			want: RelationCorrelated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := DetectRelation(tt.pair, DefaultThresholds())
			require.NotNil(t, rel)
			assert.Equal(t, tt.want, rel.RelationType)
			assert.GreaterOrEqual(t, rel.Confidence, 0.0)
			assert.LessOrEqual(t, rel.Confidence, 100.0)
		})
	}
}

func TestDetectRelation_Unrelated(t *testing.T) {
	pair := Pair{
		A: snapshot("a", "Will it rain in London tomorrow?", 0.5),
		B: snapshot("b", "Will the Lakers win the championship?", 0.5),
	}

	assert.Nil(t, DetectRelation(pair, DefaultThresholds()))
}

func TestCheckConsistency(t *testing.T) {
	march := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		pair      Pair
		relation  RelationType
		wantLabel Label
	}{
		{
			name: "inverse-fair-book",
			pair: Pair{
				A: snapshot("a", "Will the Fed cut rates in June?", 0.62),
				B: snapshot("b", "Will the Fed not cut rates in June?", 0.40),
			},
			relation:  RelationInverse,
			wantLabel: LabelConsistent,
		},
		{
			name: "calendar-ordered",
			pair: Pair{
				A: MarketSnapshot{MarketID: "a", Price: 0.3, EndDate: march},
				B: MarketSnapshot{MarketID: "b", Price: 0.4, EndDate: june},
			},
			relation:  RelationCalendarVariant,
			wantLabel: LabelConsistent,
		},
		{
			name: "calendar-inverted",
			pair: Pair{
				A: MarketSnapshot{MarketID: "a", Price: 0.6, EndDate: march},
				B: MarketSnapshot{MarketID: "b", Price: 0.4, EndDate: june},
			},
			relation:  RelationCalendarVariant,
			wantLabel: LabelSignificantDivergence,
		},
		{
			name: "multi-outcome-overround",
			pair: Pair{
				A: snapshot("a", "", 0.5),
				B: snapshot("b", "", 0.6),
			},
			relation:  RelationMultiOutcome,
			wantLabel: LabelMinorDivergence,
		},
		{
			name: "correlated-far-apart",
			pair: Pair{
				A: snapshot("a", "", 0.2),
				B: snapshot("b", "", 0.7),
			},
			relation:  RelationCorrelated,
			wantLabel: LabelSignificantDivergence,
		},
		{
			name: "inverse-broken",
			pair: Pair{
				A: snapshot("a", "", 0.9),
				B: snapshot("b", "", 0.9),
			},
			relation:  RelationInverse,
			wantLabel: LabelMajorDivergence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckConsistency(tt.pair, RelationResult{RelationType: tt.relation, Confidence: 80}, DefaultThresholds())

			assert.Equal(t, tt.wantLabel, result.Label)
			assert.Equal(t, tt.relation, result.RelationType)
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, 100.0)
			assert.Len(t, result.WhyBullets, types.WhyBulletCount)
			assert.Equal(t, 80.0, result.Confidence)
		})
	}
}

func TestCheckConsistency_InverseMonotonic(t *testing.T) {
	relation := RelationResult{RelationType: RelationInverse}
	prev := 101.0

	for i := 0; i <= 20; i++ {
		dev := float64(i) * 0.025
		pair := Pair{A: snapshot("a", "", 0.5), B: snapshot("b", "", 0.5+dev)}

		score := CheckConsistency(pair, relation, DefaultThresholds()).Score
		assert.LessOrEqual(t, score, prev, "deviation %.3f", dev)
		prev = score
	}
}

func TestCheckConsistency_CorrelatedMonotonic(t *testing.T) {
	relation := RelationResult{RelationType: RelationCorrelated}
	prev := 101.0

	for i := 0; i <= 20; i++ {
		gap := float64(i) * 0.04
		pair := Pair{A: snapshot("a", "", 0.1), B: snapshot("b", "", 0.1+gap)}

		score := CheckConsistency(pair, relation, DefaultThresholds()).Score
		assert.LessOrEqual(t, score, prev, "gap %.2f", gap)
		prev = score
	}
}

func TestScanPairs(t *testing.T) {
	markets := []MarketSnapshot{
		snapshot("cut", "Will the Fed cut rates in June?", 0.62),
		snapshot("rain", "Will it rain in London tomorrow?", 0.5),
		snapshot("no-cut", "Will the Fed not cut rates in June?", 0.40),
	}

	results := ScanPairs(markets, DefaultThresholds())

	require.Len(t, results, 1)
	assert.Equal(t, "cut", results[0].MarketAID)
	assert.Equal(t, "no-cut", results[0].MarketBID)
	assert.Equal(t, RelationInverse, results[0].RelationType)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Will the Fed cut rates?", "Will the Fed not cut rates?"))
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.InDelta(t, 0.6, Similarity("Will Bitcoin hit $100k in March?", "Will Bitcoin hit $100k in June?"), 1e-9)
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{100, LabelConsistent},
		{80, LabelConsistent},
		{79, LabelMinorDivergence},
		{60, LabelMinorDivergence},
		{40, LabelSignificantDivergence},
		{39, LabelMajorDivergence},
		{0, LabelMajorDivergence},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.score), "score %v", tt.score)
	}
}
