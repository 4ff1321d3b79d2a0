package participation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

func f64(v float64) *float64 { return &v }

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name            string
		input           Input
		wantSetup       SetupBand
		wantParticipant ParticipantBand
		wantSummary     Summary
		wantEstimated   bool
	}{
		{
			name: "deep-whale-market",
			input: Input{
				MarketID:               "m1",
				Side:                   "yes",
				Liquidity:              200000,
				Spread:                 0.005,
				Volume24h:              150000,
				Volume7dAvg:            f64(150000),
				LiquidityChange24h:     f64(-0.05),
				Depth:                  f64(30000),
				PriceVolatility:        f64(0.01),
				UniqueTraders:          800,
				AvgTradeSize:           2500,
				LargeTraderVolumeShare: f64(70),
				LargeTradeRatio:        f64(0.4),
				WalletBreakdown:        &WalletBreakdown{Large: 70, Mid: 20, Small: 10},
			},
			wantSetup:       SetupExcellent,
			wantParticipant: ParticipantSophisticated,
			wantSummary:     SummaryWhaleLed,
		},
		{
			name: "thin-retail-market",
			input: Input{
				MarketID:      "m2",
				Side:          "no",
				Liquidity:     1000,
				Spread:        0.1,
				Volume24h:     500,
				UniqueTraders: 5,
				AvgTradeSize:  50,
			},
			wantSetup:       SetupPoor,
			wantParticipant: ParticipantRetailDominated,
			wantSummary:     SummaryRetailLed,
			wantEstimated:   true,
		},
		{
			name: "middling-market",
			input: Input{
				MarketID:      "m3",
				Liquidity:     30000,
				Spread:        0.02,
				Volume24h:     25000,
				UniqueTraders: 150,
				AvgTradeSize:  600,
			},
			wantSetup:       SetupGood,
			wantParticipant: ParticipantMixed,
			wantSummary:     SummaryBalanced,
			wantEstimated:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.input)

			assert.Equal(t, tt.wantSetup, result.SetupQualityBand)
			assert.Equal(t, tt.wantParticipant, result.ParticipantQualityBand)
			assert.Equal(t, tt.wantSummary, result.ParticipationSummary)
			assert.Equal(t, tt.wantEstimated, result.BreakdownEstimated)
			assert.Equal(t, 100.0, result.WalletBreakdown.Large+result.WalletBreakdown.Mid+result.WalletBreakdown.Small)
			assert.Equal(t, BehaviorInsight(tt.wantSummary, tt.wantSetup), result.BehaviorInsight)
			assert.Len(t, result.WhyBullets, types.WhyBulletCount)
			assert.GreaterOrEqual(t, result.SetupQualityScore, 0.0)
			assert.LessOrEqual(t, result.SetupQualityScore, 100.0)
		})
	}
}

func TestNormalize_SumsToExactly100(t *testing.T) {
	inputs := []WalletBreakdown{
		{Large: 1, Mid: 1, Small: 1},
		{Large: 50.5, Mid: 49.5, Small: 0},
		{Large: 33.3, Mid: 33.3, Small: 33.3},
		{Large: 0.2, Mid: 0.2, Small: 0.1},
		{Large: 12.5, Mid: 12.5, Small: 75},
		{Large: 1e9, Mid: 1, Small: 1},
		{Large: -5, Mid: 10, Small: 10},
		{Large: 0, Mid: 0, Small: 0},
		{Large: math.NaN(), Mid: 1, Small: 1},
	}

	for _, in := range inputs {
		out := normalize(in)
		assert.Equal(t, 100.0, out.Large+out.Mid+out.Small, "input %+v", in)
		assert.GreaterOrEqual(t, out.Large, 0.0)
		assert.GreaterOrEqual(t, out.Mid, 0.0)
		assert.GreaterOrEqual(t, out.Small, 0.0)
	}
}

func TestWalletBreakdown_Estimated(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		want    WalletBreakdown
		summary Summary
	}{
		{name: "whale-sized", input: Input{AvgTradeSize: 3000, UniqueTraders: 100}, want: WalletBreakdown{55, 30, 15}, summary: SummaryWhaleLed},
		{name: "mid-sized", input: Input{AvgTradeSize: 800, UniqueTraders: 100}, want: WalletBreakdown{30, 40, 30}, summary: SummaryBalanced},
		{name: "small-sized", input: Input{AvgTradeSize: 20, UniqueTraders: 100}, want: WalletBreakdown{5, 25, 70}, summary: SummaryRetailLed},
		{name: "few-traders-shift-large", input: Input{AvgTradeSize: 20, UniqueTraders: 3}, want: WalletBreakdown{15, 25, 60}, summary: SummaryRetailLed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, estimated := walletBreakdown(tt.input)
			assert.True(t, estimated)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.summary, SummaryFor(got))
		})
	}
}

func TestBehaviorInsights_DescribeHistoryOnly(t *testing.T) {
	summaries := []Summary{SummaryWhaleLed, SummaryBalanced, SummaryRetailLed}
	bands := []SetupBand{SetupExcellent, SetupGood, SetupFair, SetupPoor}

	for _, s := range summaries {
		for _, b := range bands {
			insight := BehaviorInsight(s, b)
			require.NotEmpty(t, insight)
			assert.True(t, strings.HasPrefix(insight, "Historically"), "%s/%s", s, b)
			lower := strings.ToLower(insight)
			for _, forbidden := range []string{" will ", "expect", "likely to", "should"} {
				assert.NotContains(t, lower, forbidden, "%s/%s", s, b)
			}
		}
	}
}

func TestBands(t *testing.T) {
	assert.Equal(t, SetupExcellent, SetupBandFor(80))
	assert.Equal(t, SetupGood, SetupBandFor(79))
	assert.Equal(t, SetupFair, SetupBandFor(40))
	assert.Equal(t, SetupPoor, SetupBandFor(39))

	assert.Equal(t, ParticipantSophisticated, ParticipantBandFor(70))
	assert.Equal(t, ParticipantMixed, ParticipantBandFor(45))
	assert.Equal(t, ParticipantRetailDominated, ParticipantBandFor(44))
}

func TestDisplayInfo(t *testing.T) {
	assert.Equal(t, "green", SetupQualityDisplayInfo(SetupExcellent).Color)
	assert.Equal(t, "gray", SetupQualityDisplayInfo("bogus").Color)
	assert.Equal(t, "indigo", ParticipantQualityDisplayInfo(ParticipantSophisticated).Color)
	assert.Equal(t, "gray", ParticipantQualityDisplayInfo("bogus").Color)
}
