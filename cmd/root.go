package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-insights",
	Short: "Polymarket market analytics",
	Long: `Polymarket analytics engine that classifies market regimes and behavior,
checks related markets for pricing consistency, labels order flow, grades
participation, scores traders, sizes positions with the Kelly criterion and
turns elite-trader activity into Best Bets signals.

Run "serve" for the JSON API and scheduled scanner, or use the one-shot
commands against live Gamma API data.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnvironment reads .env when present, then loads config and builds
// the logger.
func loadEnvironment() (*config.Config, *zap.Logger, error) {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}
