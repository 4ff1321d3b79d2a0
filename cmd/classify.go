package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/discovery"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var classifyCmd = &cobra.Command{
	Use:   "classify <slug>",
	Short: "Classify a live market's behavior cluster",
	Long: `Fetches one market from the Gamma API by slug (or by id with --id) and
prints its behavior cluster, dimension scores and supporting evidence.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().Bool("id", false, "Treat the argument as a market id instead of a slug")
	classifyCmd.Flags().Bool("json", false, "Print the raw classification as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	byID, _ := cmd.Flags().GetBool("id")
	asJSON, _ := cmd.Flags().GetBool("json")

	client := discovery.NewClient(cfg.PolymarketGammaURL, logger)

	var market *types.Market
	if byID {
		market, err = client.FetchMarket(ctx, args[0])
	} else {
		market, err = client.FetchMarketBySlug(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("fetch market %s: %w", args[0], err)
	}

	svc := insights.New(&insights.Config{Logger: logger})
	result, err := svc.ClassifyBehavior(ctx, insights.BehaviorMarket(*market))
	if err != nil {
		return fmt.Errorf("classify market: %w", err)
	}

	if asJSON {
		out, marshalErr := json.MarshalIndent(result, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("marshal result: %w", marshalErr)
		}
		fmt.Println(string(out))
		return nil
	}

	printClassification(os.Stdout, market, result)
	return nil
}

func printClassification(out io.Writer, market *types.Market, result behavior.ClusterResult) {
	fmt.Fprintf(out, "Market:     %s\n", market.Question)
	fmt.Fprintf(out, "Slug:       %s\n", market.Slug)
	if yes, ok := market.YesPrice(); ok {
		fmt.Fprintf(out, "YES price:  %.3f\n", yes)
	}
	fmt.Fprintln(out)

	info, _ := behavior.GetDisplayInfo(result.Cluster)
	fmt.Fprintf(out, "Cluster:    %s (%.0f%% confidence)\n", info.Label, result.Confidence)
	fmt.Fprintf(out, "            %s\n", info.Description)
	if info.TradingNote != "" {
		fmt.Fprintf(out, "Note:       %s\n", info.TradingNote)
	}
	fmt.Fprintln(out)

	d := result.Dimensions
	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  info cadence              %5.1f\n", d.InfoCadence)
	fmt.Fprintf(out, "  info structure            %5.1f\n", d.InfoStructure)
	fmt.Fprintf(out, "  liquidity stability       %5.1f\n", d.LiquidityStability)
	fmt.Fprintf(out, "  time to resolution        %5.1f\n", d.TimeToResolution)
	fmt.Fprintf(out, "  participant concentration %5.1f\n", d.ParticipantConcentration)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Why:")
	for _, b := range result.WhyBullets {
		fmt.Fprintf(out, "  • %s\n", b.Text)
	}
}
