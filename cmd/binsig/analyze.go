package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/newthinker/binsig/internal/llm/factory"
	"github.com/newthinker/binsig/internal/logger"
	"github.com/newthinker/binsig/internal/market"
	"github.com/spf13/cobra"
)

var (
	analyzeDays   int
	analyzeNoNews bool
	analyzeStatus bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Analyze a market through the market-data backend",
	Long:  "Call the market-data endpoints at market.base_url and print the analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 7, "days of history to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeNoNews, "no-news", false, "ignore news impact")
	analyzeCmd.Flags().BoolVar(&analyzeStatus, "status", false, "print the backend connection status first")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	symbol := args[0]
	if !market.IsSupported(symbol) {
		return fmt.Errorf("market %q is not supported", symbol)
	}

	client := market.NewHTTPClient(market.HTTPClientOptions{
		BaseURL:        cfg.Market.BaseURL,
		Timeout:        cfg.Market.Timeout,
		RequestsPerSec: cfg.Market.RequestsPerSec,
	}, log)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if analyzeStatus {
		st, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("fetching status: %w", err)
		}
		fmt.Fprintf(out, "Backend: connected=%t version=%s\n\n", st.Connected, st.Version)
	}

	analysis, err := client.AnalyzeMarket(ctx, symbol, analyzeDays, !analyzeNoNews)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", symbol, err)
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	commentary, err := market.NewNarrator(provider).Narrate(ctx, analysis)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "commentary unavailable: %v\n", err)
	}

	printInsight(out, analysis, commentary)
	return nil
}

func printInsight(w io.Writer, a *market.Analysis, commentary string) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, "=== %s ===\n", a.Symbol)
	fmt.Fprintf(w, "Trend:       %s (strength %.2f)\n", strings.ToUpper(a.Trend), a.Strength)
	fmt.Fprintf(w, "Direction:   %s\n", a.Direction())
	fmt.Fprintf(w, "Volatility:  %s\n", a.Volatility)
	fmt.Fprintf(w, "News impact: %s\n", a.NewsImpact)
	fmt.Fprintf(w, "RSI:         %.2f\n", a.Indicators.RSI)
	fmt.Fprintf(w, "Support:     %v\n", a.SupportLevels)
	fmt.Fprintf(w, "Resistance:  %v\n", a.ResistanceLevels)
	if commentary != "" {
		fmt.Fprintf(w, "\n%s\n", commentary)
	}
}
