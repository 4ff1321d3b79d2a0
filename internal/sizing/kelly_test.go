package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

func f64(v float64) *float64 { return &v }

func TestCalculateKellyPosition_Conservative(t *testing.T) {
	pos, err := CalculateKellyPosition(1000, 0.5, 0.1, ToleranceConservative)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, pos.FullKellyPercentage, 1e-9)
	assert.InDelta(t, 2.5, pos.RiskPercentage, 1e-9)
	assert.LessOrEqual(t, pos.RiskPercentage, MaxKellyFraction*100*0.125)
	assert.Equal(t, 25.0, pos.PositionAmount)
	assert.Equal(t, 5.0, pos.ExpectedValue)
	assert.Equal(t, 2.0, pos.RiskRewardRatio)
	assert.Equal(t, 0.425, pos.RiskLevels.StopLoss)
	assert.Equal(t, 0.65, pos.RiskLevels.TakeProfit)
	assert.Equal(t, RecommendModerate, pos.Recommendation)
	assert.Empty(t, pos.Warnings)
}

func TestCalculateKellyPosition_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		bankroll  float64
		odds      float64
		edge      float64
		tolerance RiskTolerance
		field     string
	}{
		{name: "odds-above-one", bankroll: 1000, odds: 1.5, edge: 0.1, tolerance: ToleranceConservative, field: "odds"},
		{name: "odds-zero", bankroll: 1000, odds: 0, edge: 0.1, tolerance: ToleranceConservative, field: "odds"},
		{name: "zero-bankroll", bankroll: 0, odds: 0.5, edge: 0.1, tolerance: ToleranceModerate, field: "bankroll"},
		{name: "negative-bankroll", bankroll: -10, odds: 0.5, edge: 0.1, tolerance: ToleranceModerate, field: "bankroll"},
		{name: "negative-edge", bankroll: 1000, odds: 0.5, edge: -0.01, tolerance: ToleranceModerate, field: "edge"},
		{name: "nan-edge", bankroll: 1000, odds: 0.5, edge: math.NaN(), tolerance: ToleranceModerate, field: "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateKellyPosition(tt.bankroll, tt.odds, tt.edge, tt.tolerance)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidArgument))

			var argErr *types.InvalidArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.Equal(t, tt.field, argErr.Field)
		})
	}

	_, err := CalculateKellyPosition(1000, 0.5, 0.1, "yolo")
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestCalculateKellyPosition_RiskMultipliers(t *testing.T) {
	tests := []struct {
		tolerance RiskTolerance
		wantRisk  float64
	}{
		{ToleranceAggressive, 10},
		{ToleranceModerate, 5},
		{ToleranceConservative, 2.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.tolerance), func(t *testing.T) {
			pos, err := CalculateKellyPosition(1000, 0.5, 0.1, tt.tolerance)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRisk, pos.RiskPercentage, 1e-9)
			assert.LessOrEqual(t, pos.RiskPercentage, MaxKellyFraction*100)
		})
	}
}

func TestCalculateKellyPosition_CapsFullKelly(t *testing.T) {
	pos, err := CalculateKellyPosition(1000, 0.3, 0.2, ToleranceAggressive)
	require.NoError(t, err)

	assert.Greater(t, pos.FullKellyPercentage, 25.0)
	assert.Equal(t, 25.0, pos.KellyPercentage)
	assert.InDelta(t, 12.5, pos.RiskPercentage, 1e-9)
	assert.Equal(t, 125.0, pos.PositionAmount)
	require.Len(t, pos.Warnings, 2)
	assert.Contains(t, pos.Warnings[1], "capped at 25%")
	assert.Equal(t, RecommendConservative, pos.Recommendation)
}

func TestCalculateKellyPosition_NoEdgeSkips(t *testing.T) {
	pos, err := CalculateKellyPosition(1000, 0.5, 0, ToleranceModerate)
	require.NoError(t, err)

	assert.Equal(t, RecommendSkip, pos.Recommendation)
	assert.Zero(t, pos.PositionAmount)
	assert.Zero(t, pos.RiskPercentage)
}

func TestCalculateKellyPosition_ThreeWarningsSkip(t *testing.T) {
	pos, err := CalculateKellyPosition(1000, 0.9, 0.01, ToleranceModerate)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(pos.Warnings), 3)
	assert.Equal(t, RecommendSkip, pos.Recommendation)
	assert.Zero(t, pos.PositionAmount)
	assert.Equal(t, 0.99, pos.RiskLevels.TakeProfit)
}

func TestCalculateKellyPosition_WinProbabilityCapped(t *testing.T) {
	pos, err := CalculateKellyPosition(1000, 0.6, 0.5, ToleranceConservative)
	require.NoError(t, err)
	assert.Equal(t, MaxWinProbability, pos.WinProbability)
}

func TestCalculateAdvancedKelly(t *testing.T) {
	t.Run("matches-simple-variant", func(t *testing.T) {
		simple, err := CalculateKellyPosition(1000, 0.5, 0.1, ToleranceModerate)
		require.NoError(t, err)

		advanced, err := CalculateAdvancedKelly(KellyInputs{
			Bankroll:       1000,
			Odds:           0.5,
			WinProbability: 0.6,
			RiskTolerance:  ToleranceModerate,
		})
		require.NoError(t, err)
		assert.Equal(t, simple, advanced)
	})

	t.Run("available-bankroll-is-the-base", func(t *testing.T) {
		pos, err := CalculateAdvancedKelly(KellyInputs{
			Bankroll:          1000,
			Odds:              0.5,
			WinProbability:    0.6,
			RiskTolerance:     ToleranceModerate,
			AvailableBankroll: f64(400),
		})
		require.NoError(t, err)
		assert.Equal(t, 400.0, pos.Bankroll)
		assert.Equal(t, 20.0, pos.PositionAmount)
	})

	t.Run("max-position-overrides-cap", func(t *testing.T) {
		pos, err := CalculateAdvancedKelly(KellyInputs{
			Bankroll:       1000,
			Odds:           0.5,
			WinProbability: 0.6,
			RiskTolerance:  ToleranceAggressive,
			MaxPositionPct: f64(0.1),
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, pos.KellyPercentage)
		assert.Equal(t, 50.0, pos.PositionAmount)
	})

	t.Run("negative-edge-skips", func(t *testing.T) {
		pos, err := CalculateAdvancedKelly(KellyInputs{
			Bankroll:       1000,
			Odds:           0.4,
			WinProbability: 0.35,
			RiskTolerance:  ToleranceModerate,
		})
		require.NoError(t, err)
		assert.Equal(t, RecommendSkip, pos.Recommendation)
		assert.Zero(t, pos.PositionAmount)
	})

	invalid := []struct {
		name  string
		in    KellyInputs
		field string
	}{
		{name: "depleted", in: KellyInputs{Bankroll: 1000, Odds: 0.5, WinProbability: 0.6, RiskTolerance: ToleranceModerate, AvailableBankroll: f64(0)}, field: "availableBankroll"},
		{name: "win-probability-one", in: KellyInputs{Bankroll: 1000, Odds: 0.5, WinProbability: 1, RiskTolerance: ToleranceModerate}, field: "winProbability"},
		{name: "max-position-zero", in: KellyInputs{Bankroll: 1000, Odds: 0.5, WinProbability: 0.6, RiskTolerance: ToleranceModerate, MaxPositionPct: f64(0)}, field: "maxPositionPct"},
		{name: "stop-loss-out-of-range", in: KellyInputs{Bankroll: 1000, Odds: 0.5, WinProbability: 0.6, RiskTolerance: ToleranceModerate, StopLossPct: f64(1.2)}, field: "stopLossPct"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateAdvancedKelly(tt.in)
			var argErr *types.InvalidArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.Equal(t, tt.field, argErr.Field)
		})
	}
}

func TestCalculateRiskLevels(t *testing.T) {
	levels, err := CalculateRiskLevels(0.4, DefaultStopLossPct, DefaultTakeProfitPct)
	require.NoError(t, err)

	assert.Equal(t, 0.34, levels.StopLoss)
	assert.Equal(t, 0.52, levels.TakeProfit)
	assert.Equal(t, 2.0, levels.RiskRewardRatio)

	capped, err := CalculateRiskLevels(0.95, DefaultStopLossPct, DefaultTakeProfitPct)
	require.NoError(t, err)
	assert.Equal(t, 0.99, capped.TakeProfit)

	_, err = CalculateRiskLevels(1.2, DefaultStopLossPct, DefaultTakeProfitPct)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	_, err = CalculateRiskLevels(0.5, 0, DefaultTakeProfitPct)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	_, err = CalculateRiskLevels(0.5, DefaultStopLossPct, -1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestCents(t *testing.T) {
	assert.Equal(t, 12.35, cents(12.345))
	assert.Equal(t, 0.1, cents(0.1))
	assert.Equal(t, 33.33, cents(100.0/3))
}
