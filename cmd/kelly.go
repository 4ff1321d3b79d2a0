package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/sizing"
)

//nolint:gochecknoglobals // Cobra boilerplate
var kellyCmd = &cobra.Command{
	Use:   "kelly",
	Short: "Size a position with the Kelly criterion",
	Long: `Computes a fractional-Kelly position size for a binary market.

Pass --edge to size at market odds plus an edge estimate, or --win-prob to
size from an explicit win probability.`,
	RunE: runKelly,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(kellyCmd)
	kellyCmd.Flags().Float64P("bankroll", "b", 1000, "Bankroll in USD")
	kellyCmd.Flags().Float64P("odds", "o", 0, "Market price of the outcome (0-1)")
	kellyCmd.Flags().Float64P("edge", "e", 0, "Estimated edge over the market price")
	kellyCmd.Flags().Float64P("win-prob", "w", 0, "Explicit win probability (overrides --edge)")
	kellyCmd.Flags().StringP("tolerance", "t", "", "Risk tolerance: aggressive, moderate, conservative")
	_ = kellyCmd.MarkFlagRequired("odds")
}

func runKelly(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	bankroll, _ := cmd.Flags().GetFloat64("bankroll")
	odds, _ := cmd.Flags().GetFloat64("odds")
	edge, _ := cmd.Flags().GetFloat64("edge")
	winProb, _ := cmd.Flags().GetFloat64("win-prob")
	tolerance, _ := cmd.Flags().GetString("tolerance")

	svc := insights.New(&insights.Config{
		DefaultRiskTolerance: sizing.RiskTolerance(cfg.KellyDefaultRiskTolerance),
		Logger:               logger,
	})

	var pos sizing.PositionSize
	if cmd.Flags().Changed("win-prob") {
		pos, err = svc.SizeAdvanced(context.Background(), sizing.KellyInputs{
			Bankroll:       bankroll,
			Odds:           odds,
			WinProbability: winProb,
			RiskTolerance:  sizing.RiskTolerance(tolerance),
		})
	} else {
		pos, err = svc.SizeKelly(context.Background(), bankroll, odds, edge, sizing.RiskTolerance(tolerance))
	}
	if err != nil {
		return fmt.Errorf("size position: %w", err)
	}

	printPosition(os.Stdout, pos)
	return nil
}

func printPosition(out io.Writer, pos sizing.PositionSize) {
	fmt.Fprintf(out, "Recommendation:   %s\n", pos.Recommendation)
	fmt.Fprintf(out, "Position:         $%.2f of $%.2f (%.3f%%)\n", pos.PositionAmount, pos.Bankroll, pos.RiskPercentage)
	fmt.Fprintf(out, "Shares:           %.2f\n", pos.Shares)
	fmt.Fprintf(out, "Win probability:  %.2f%% (edge %.2f%%)\n", pos.WinProbability*100, pos.Edge*100)
	fmt.Fprintf(out, "Kelly:            full %.2f%%, capped %.2f%%\n", pos.FullKellyPercentage, pos.KellyPercentage)
	fmt.Fprintf(out, "Expected value:   $%.2f\n", pos.ExpectedValue)
	fmt.Fprintf(out, "Stop / target:    %.4f / %.4f (R/R %.2f)\n", pos.RiskLevels.StopLoss, pos.RiskLevels.TakeProfit, pos.RiskRewardRatio)
	fmt.Fprintf(out, "Risk of ruin:     %.4f%%\n", pos.ProbabilityOfRuin*100)
	fmt.Fprintf(out, "Sharpe:           %.3f\n", pos.SharpeRatio)

	if len(pos.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range pos.Warnings {
			fmt.Fprintf(out, "  ⚠️  %s\n", w)
		}
	}
}
