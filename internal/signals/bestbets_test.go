package signals

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func activities(n int, elite float64, side Side, size float64, age time.Duration) []TraderActivity {
	out := make([]TraderActivity, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, TraderActivity{
			WalletAddress: fmt.Sprintf("0x%02d", i),
			EliteScore:    elite + float64(i),
			Side:          side,
			PositionSize:  size,
			EntryPrice:    0.55,
			Timestamp:     testNow.Add(-age),
		})
	}
	return out
}

func TestGenerateBestBets_NeedsTwoTraders(t *testing.T) {
	assert.Nil(t, GenerateBestBets("m1", "Q?", "politics", 0.5, 50000, nil))
	assert.Nil(t, GenerateBestBets("m1", "Q?", "politics", 0.5, 50000, activities(1, 90, SideYes, 500, time.Minute)))

	signal := GenerateBestBets("m1", "Q?", "politics", 0.5, 50000, activities(2, 90, SideYes, 500, time.Minute))
	require.NotNil(t, signal)
	assert.GreaterOrEqual(t, signal.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, signal.ConfidenceScore, 100.0)
}

func TestGenerate(t *testing.T) {
	split := append(
		activities(1, 20, SideYes, 600, 72*time.Hour),
		TraderActivity{WalletAddress: "0xff", EliteScore: 20, Side: SideNo, PositionSize: 400, Timestamp: testNow.Add(-72 * time.Hour)},
	)

	tests := []struct {
		name           string
		activities     []TraderActivity
		liquidity      float64
		wantSide       Side
		wantStrength   float64
		wantConfidence float64
		wantType       SignalType
		wantAction     Action
		wantRisk       Level
		wantUrgency    Level
	}{
		{
			name:           "elite-consensus",
			activities:     activities(10, 85, SideYes, 1000, 30*time.Minute),
			liquidity:      200000,
			wantSide:       SideYes,
			wantStrength:   100,
			wantConfidence: 97,
			wantType:       TypeElite,
			wantAction:     ActionCopyImmediately,
			wantRisk:       LevelLow,
			wantUrgency:    LevelHigh,
		},
		{
			name:           "moderate-no-side",
			activities:     activities(3, 59, SideNo, 250, 2*time.Hour),
			liquidity:      20000,
			wantSide:       SideNo,
			wantStrength:   100,
			wantConfidence: 69,
			wantType:       TypeModerate,
			wantAction:     ActionMonitor,
			wantRisk:       LevelMedium,
			wantUrgency:    LevelMedium,
		},
		{
			name:           "weak-split-stale",
			activities:     split,
			liquidity:      5000,
			wantSide:       SideYes,
			wantStrength:   60,
			wantConfidence: 20,
			wantType:       TypeWeak,
			wantAction:     ActionIgnore,
			wantRisk:       LevelHigh,
			wantUrgency:    LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := generate("m1", "Will it happen?", "politics", 0.55, tt.liquidity, tt.activities, testNow)
			require.NotNil(t, signal)

			assert.Equal(t, tt.wantSide, signal.ConsensusSide)
			assert.Equal(t, tt.wantStrength, signal.ConsensusStrength)
			assert.Equal(t, tt.wantConfidence, signal.ConfidenceScore)
			assert.Equal(t, tt.wantType, signal.SignalType)
			assert.Equal(t, tt.wantAction, signal.Action)
			assert.Equal(t, tt.wantRisk, signal.RiskLevel)
			assert.Equal(t, tt.wantUrgency, signal.Urgency)
			assert.Equal(t, testNow.Add(SignalTTL), signal.ExpiresAt)
			assert.Len(t, signal.WhyBullets, types.WhyBulletCount)
			assert.Equal(t, len(tt.activities), signal.TraderCount)
		})
	}
}

func TestGenerate_TopTraders(t *testing.T) {
	acts := activities(8, 50, SideYes, 100, time.Hour)

	signal := generate("m1", "Q?", "crypto", 0.4, 60000, acts, testNow)
	require.NotNil(t, signal)

	require.Len(t, signal.TopTraders, 5)
	assert.Equal(t, "0x07", signal.TopTraders[0].WalletAddress)
	assert.Equal(t, "0x03", signal.TopTraders[4].WalletAddress)
	assert.Equal(t, "0x00", acts[0].WalletAddress, "input must not be reordered")
}

func TestGenerate_Idempotent(t *testing.T) {
	acts := activities(4, 70, SideNo, 300, 3*time.Hour)

	a := generate("m1", "Q?", "sports", 0.3, 30000, acts, testNow)
	b := generate("m1", "Q?", "sports", 0.3, 30000, acts, testNow)
	assert.Equal(t, a, b)
	assert.Equal(t, "bb-m1-no", a.ID)
}

func TestConsensus_FallsBackToCounts(t *testing.T) {
	acts := []TraderActivity{
		{WalletAddress: "a", Side: SideYes},
		{WalletAddress: "b", Side: SideYes},
		{WalletAddress: "c", Side: SideNo},
	}

	side, strength, volume := consensus(acts)
	assert.Equal(t, SideYes, side)
	assert.InDelta(t, 66.67, strength, 0.01)
	assert.Zero(t, volume)
}
