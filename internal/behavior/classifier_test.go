package behavior

import (
	"slices"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

func intp(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

//nolint:gochecknoglobals // fixed clock for deterministic horizons
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		market Market
		want   Cluster
	}{
		{
			name: "sports-game",
			market: Market{
				MarketID:      "m1",
				Question:      "Will the Lakers beat the Celtics in tonight's game?",
				Category:      "Sports",
				EndDate:       testNow.Add(24 * time.Hour),
				AvgSpread:     0.015,
				AvgVolume24h:  150000,
				TradeCount:    intp(2000),
				UniqueTraders: intp(600),
			},
			want: ClusterScheduledEvent,
		},
		{
			name: "cpi-print",
			market: Market{
				MarketID:      "m2",
				Question:      "Will CPI inflation come in above 3% in the March release?",
				Category:      "Economics",
				EndDate:       testNow.Add(20 * 24 * time.Hour),
				AvgSpread:     0.02,
				AvgVolume24h:  40000,
				TradeCount:    intp(900),
				UniqueTraders: intp(250),
			},
			want: ClusterDataRelease,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classify(tt.market, testNow)

			assert.Equal(t, tt.want, result.Cluster)
			assert.Equal(t, tt.market.MarketID, result.MarketID)
			assert.Len(t, result.WhyBullets, types.WhyBulletCount)
			assert.GreaterOrEqual(t, result.Confidence, minConfidence)
			assert.LessOrEqual(t, result.Confidence, maxConfidence)
			assert.Contains(t, result.Explanation, "Dominant trait:")
		})
	}
}

func TestClassify_AlwaysKnownCluster(t *testing.T) {
	markets := []Market{
		{MarketID: "empty"},
		{MarketID: "wide", AvgSpread: 0.5, SpreadVariance: f64(0.01)},
		{MarketID: "past", Question: "Ever?", EndDate: testNow.Add(-48 * time.Hour)},
		{MarketID: "far", Question: "By end of 2030?", EndDate: testNow.Add(20 * 365 * 24 * time.Hour), UniqueTraders: intp(3), TradeCount: intp(500)},
		{MarketID: "noisy", Question: "Will he say, tweet, mention or announce it today, tonight, live?", Category: "Pop Culture"},
	}

	known := make(map[Cluster]bool)
	for _, c := range Clusters() {
		known[c] = true
	}

	for _, m := range markets {
		t.Run(m.MarketID, func(t *testing.T) {
			result := classify(m, testNow)

			assert.True(t, known[result.Cluster], "unknown cluster %q", result.Cluster)
			require.Len(t, result.WhyBullets, types.WhyBulletCount)
			for _, d := range result.Dimensions.list() {
				assert.GreaterOrEqual(t, d.value, 0.0, d.name)
				assert.LessOrEqual(t, d.value, 100.0, d.name)
			}
			assert.GreaterOrEqual(t, result.Confidence, minConfidence)
			assert.LessOrEqual(t, result.Confidence, maxConfidence)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	m := Market{
		MarketID:     "m",
		Question:     "Will Bitcoin reach $150k above the March high?",
		Category:     "Crypto",
		EndDate:      testNow.Add(10 * 24 * time.Hour),
		AvgSpread:    0.01,
		AvgVolume24h: 80000,
	}

	a, err := json.Marshal(classify(m, testNow))
	require.NoError(t, err)
	b, err := json.Marshal(classify(m, testNow))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestComputeDimensions_TimeToResolution(t *testing.T) {
	tests := []struct {
		name    string
		endDate time.Time
		want    float64
	}{
		{name: "unknown", endDate: time.Time{}, want: 50},
		{name: "past", endDate: testNow.Add(-time.Hour), want: 0},
		{name: "two-years", endDate: testNow.Add(730 * 24 * time.Hour), want: 100},
		{name: "beyond-horizon", endDate: testNow.Add(5000 * 24 * time.Hour), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := computeDimensions(Market{EndDate: tt.endDate}, testNow)
			assert.Equal(t, tt.want, dims.TimeToResolution)
		})
	}
}

func TestRangeFit(t *testing.T) {
	r := Range{Min: 20, Max: 60}

	assert.Equal(t, 20.0, rangeFit(40, r))
	assert.Equal(t, 10.0, rangeFit(20, r))
	assert.Equal(t, 10.0, rangeFit(60, r))
	assert.Equal(t, -5.0, rangeFit(70, r))
	assert.Equal(t, -10.0, rangeFit(0, r))
	assert.Equal(t, 20.0, rangeFit(5, Range{Min: 5, Max: 5}))
}

func TestKeywordBonusIsCapped(t *testing.T) {
	text := newQuestionText("Will the championship final match game series win vs score beat?")
	def := definitions()[0]

	cs := scoreCluster(def, Dimensions{}, text, "")
	assert.Greater(t, len(cs.keywordMatches), 3)

	withoutKeywords := scoreCluster(def, Dimensions{}, newQuestionText(""), "")
	assert.InDelta(t, keywordBonusCap, cs.total-withoutKeywords.total, 1e-9)
}

func TestCategoryBonus_ExactKeyOnly(t *testing.T) {
	idx := slices.IndexFunc(definitions(), func(d definition) bool {
		return slices.Contains(d.categories, "politics")
	})
	require.GreaterOrEqual(t, idx, 0)
	def := definitions()[idx]

	tests := []struct {
		category string
		want     bool
	}{
		{"Politics", true},
		{"US Politics", true},
		{"  us-politics ", true},
		{"us-politics-odd", false},
		{"geopolitics", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			cs := scoreCluster(def, Dimensions{}, newQuestionText(""), normalizeCategory(tt.category))
			assert.Equal(t, tt.want, cs.categoryMatched)
		})
	}
}

func TestQuestionText_Matches(t *testing.T) {
	text := newQuestionText("Will BTC trade above $100k by end of June?")

	assert.True(t, text.matches("btc"))
	assert.True(t, text.matches("$"))
	assert.True(t, text.matches("by end of"))
	assert.False(t, text.matches("bt"))
	assert.True(t, text.hasDigit)
}

func TestGetDisplayInfo(t *testing.T) {
	for _, c := range Clusters() {
		info, ok := GetDisplayInfo(c)
		require.True(t, ok, c)
		assert.Equal(t, c, info.Cluster)
		assert.NotEmpty(t, info.Label)
	}

	_, ok := GetDisplayInfo("bogus")
	assert.False(t, ok)
}
