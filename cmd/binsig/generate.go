package main

import (
	"fmt"

	"github.com/newthinker/binsig/internal/api/request"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genReq      = request.New()
	genTrend    string
	genInsights bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a signal batch and print it",
	Long:  "Validate the request, generate one batch and print it in the export text format",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genReq.Market, "market", "", "market symbol, e.g. EUR/USD (required)")
	f.IntVar(&genReq.Timeframe, "timeframe", genReq.Timeframe, "timeframe in minutes (1, 5 or 15)")
	f.IntVar(&genReq.Count, "count", 10, "number of signals (1-50)")
	f.StringVar(&genReq.Start, "start", "", "window start HH:MM (required)")
	f.StringVar(&genReq.End, "end", "", "window end HH:MM (required)")
	f.Float64Var(&genReq.Accuracy, "accuracy", genReq.Accuracy, "target accuracy")
	f.IntVar(&genReq.DaysAnalyze, "days", 0, "days of history to analyze (1-30)")
	f.BoolVar(&genReq.Martingale, "martingale", false, "martingale mode")
	f.BoolVar(&genReq.NewsFilter, "news-filter", genReq.NewsFilter, "apply the news filter")
	f.BoolVar(&genReq.VolatilityFilter, "volatility-filter", genReq.VolatilityFilter, "apply the volatility filter")
	f.StringVar(&genTrend, "trend", string(genReq.TrendStrength), "trend strength: high, medium or low")
	f.BoolVar(&genReq.Backtest, "backtest", false, "apply the backtest filter")
	f.IntVar(&genReq.BacktestDays, "backtest-days", genReq.BacktestDays, "backtest window in days (minimum 30)")
	f.BoolVar(&genInsights, "insight", false, "print a market insight after the signals")

	generateCmd.MarkFlagRequired("market")
	generateCmd.MarkFlagRequired("start")
	generateCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	req := genReq
	req.TrendStrength = core.TrendStrength(genTrend)
	if err := request.Check(req); err != nil {
		return err
	}

	ctx := cmd.Context()
	comps, err := buildApp(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer comps.close()

	b, err := comps.app.Submit(ctx, req)
	if err != nil {
		return err
	}

	_, text, err := comps.app.Export(ctx, b.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, text)
	if b.Truncated {
		fmt.Fprintf(out, "\n%d of %d signals fit in the window\n", len(b.Records), b.Requested)
	}

	if genInsights {
		ins, err := comps.app.Insight(ctx, req.Market, req.NewsFilter)
		if err != nil {
			log.Warn("market insight unavailable", zap.Error(err))
			return nil
		}
		printInsight(out, ins.Analysis, ins.Commentary)
	}
	return nil
}
