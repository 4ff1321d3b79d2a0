package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-insights/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the insights API and market scanner",
	Long: `Starts the insights service, which will:
1. Serve the scoring engines over a JSON API under /api/v1
2. Scan active Gamma API markets on SCANNER_SCHEDULE (behavior + consistency)
3. Archive results to STORAGE_MODE (console or postgres)
4. Publish Best Bets signals to PUBLISHER_MODE (nop or redis streams)
5. With --live-books, stream CLOB order books and classify market state

Use --no-scanner to serve the API only.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("no-scanner", false, "Disable the scheduled market scanner")
	serveCmd.Flags().StringP("port", "p", "", "HTTP port (overrides HTTP_PORT)")
	serveCmd.Flags().Bool("live-books", false, "Stream live order books (overrides LIVE_BOOKS_ENABLED)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	noScanner, _ := cmd.Flags().GetBool("no-scanner")
	if noScanner {
		cfg.ScannerEnabled = false
	}
	port, _ := cmd.Flags().GetString("port")
	if port != "" {
		cfg.HTTPPort = port
	}
	if cmd.Flags().Changed("live-books") {
		cfg.LiveBooksEnabled, _ = cmd.Flags().GetBool("live-books")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
