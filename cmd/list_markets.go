package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/discovery"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List active markets from Polymarket Gamma API",
	Long: `Fetches and displays active markets from the Polymarket Gamma API.
With --classify each market is also assigned its behavior cluster.`,
	RunE: runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to fetch")
	listMarketsCmd.Flags().BoolP("verbose", "v", false, "Show detailed market information")
	listMarketsCmd.Flags().StringP("sort", "s", "volume24hr", "Sort by: volume24hr, createdAt, endDate")
	listMarketsCmd.Flags().BoolP("classify", "c", false, "Show each market's behavior cluster")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	limit, _ := cmd.Flags().GetInt("limit")
	verbose, _ := cmd.Flags().GetBool("verbose")
	sortBy, _ := cmd.Flags().GetString("sort")
	classify, _ := cmd.Flags().GetBool("classify")

	err = validateSort(sortBy)
	if err != nil {
		return err
	}

	client := discovery.NewClient(cfg.PolymarketGammaURL, logger)

	fmt.Printf("Fetching up to %d active markets from Polymarket...\n\n", limit)

	resp, err := client.FetchActiveMarkets(ctx, limit, 0, sortBy)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	if len(resp.Data) == 0 {
		fmt.Println("No active markets found.")
		return nil
	}

	var svc *insights.Service
	if classify {
		svc = insights.New(&insights.Config{Logger: logger})
	}

	err = printMarkets(ctx, os.Stdout, resp.Data, svc, verbose)
	if err != nil {
		return err
	}

	fmt.Printf("\nTotal: %d markets\n", len(resp.Data))
	return nil
}

func validateSort(sortBy string) error {
	for _, valid := range []string{"volume24hr", "createdAt", "endDate"} {
		if sortBy == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid sort option: %s. Valid options: volume24hr, createdAt, endDate", sortBy)
}

// printMarkets writes a market table. A nil svc skips the cluster column.
func printMarkets(ctx context.Context, out io.Writer, markets []types.Market, svc *insights.Service, verbose bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if svc != nil {
		fmt.Fprintf(w, "SLUG\tQUESTION\tYES\tVOLUME 24H\tCLUSTER\n")
		fmt.Fprintf(w, "----\t--------\t---\t----------\t-------\n")
	} else {
		fmt.Fprintf(w, "SLUG\tQUESTION\tYES\tVOLUME 24H\n")
		fmt.Fprintf(w, "----\t--------\t---\t----------\n")
	}

	for i := range markets {
		market := &markets[i]

		price := "-"
		if yes, ok := market.YesPrice(); ok {
			price = fmt.Sprintf("%.2f", yes)
		}

		row := fmt.Sprintf("%s\t%s\t%s\t$%.0f", market.Slug, truncate(market.Question, 60), price, market.Volume24hr)
		if svc != nil {
			cluster := "-"
			result, err := svc.ClassifyBehavior(ctx, insights.BehaviorMarket(*market))
			if err == nil {
				cluster = clusterLabel(result.Cluster)
			}
			row += "\t" + cluster
		}
		fmt.Fprintln(w, row)

		if verbose {
			fmt.Fprintf(w, "\tID: %s\n", market.ID)
			fmt.Fprintf(w, "\tClosed: %v, Active: %v\n", market.Closed, market.Active)
			fmt.Fprintf(w, "\tCategory: %s, Spread: %.3f, Liquidity: $%.0f\n", market.Category, market.Spread, market.Liquidity)
			if !market.EndDate.IsZero() {
				fmt.Fprintf(w, "\tEnds: %s\n", market.EndDate.Format(time.RFC3339))
			}
			fmt.Fprintf(w, "\n")
		}
	}

	return w.Flush()
}

func clusterLabel(c behavior.Cluster) string {
	info, ok := behavior.GetDisplayInfo(c)
	if !ok {
		return string(c)
	}
	return info.Label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
