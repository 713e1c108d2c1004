package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/semindex/semindex/internal/telemetry"
	"github.com/semindex/semindex/internal/ui"
)

func newStatsCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show search usage statistics",
		Long: `Show recorded search usage: total searches, tokens returned versus an
estimated full-file-read baseline, and the savings trend over the last
seven days.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd, flags, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, flags *rootFlags, jsonOutput bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.OutOrStdout(), flags.noColor)

	path := usageDBPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printer.Infof("No usage recorded yet. Stats accumulate as the MCP server handles searches.")
		return nil
	}

	tracker, err := telemetry.Open(path)
	if err != nil {
		return err
	}
	defer tracker.Close()

	stats, err := tracker.Stats(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printer.Header("Search usage")
	printer.KV("Searches", stats.Searches)
	printer.KV("Tokens returned", stats.TokensReturned)
	printer.KV("Tokens saved", stats.TokensSaved)
	printer.KV("Cost saved", formatUSD(stats.CostSavedUSD))

	if len(stats.Trend) > 0 {
		printer.Infof("")
		printer.Header("Last 7 days (tokens saved)")
		values := make([]float64, len(stats.Trend))
		for i, day := range stats.Trend {
			values[i] = float64(day.TokensSaved)
		}
		printer.Infof("  %s", printer.Styles().Sparkline.Render(ui.Sparkline(values)))
		for _, day := range stats.Trend {
			printer.KV(day.Date, day.TokensSaved)
		}
	}
	return nil
}

func formatUSD(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
