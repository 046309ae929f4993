package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/core"
	"github.com/spf13/cobra"
)

var (
	analyzeDays int
	analyzeName string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Print indicators, forecast and news sentiment for a symbol",
	Long: `Analyze fetches the price history, quote and recent news for a symbol and
prints the indicator bundle, the price forecast and the sentiment summary.
Bare tickers get the configured exchange suffix, e.g. TCS becomes TCS.NS.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "forecast horizon in trading days (default: maximum)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "company name used to search news")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw JSON overview")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	cfg.Refresh.Enabled = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wiring application: %w", err)
	}
	defer rt.Close()

	days := analyzeDays
	if days == 0 {
		days = rt.app.MaxHorizon()
	}

	ov, err := rt.app.Overview(ctx, args[0], analyzeName, days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ov)
	}
	printOverview(out, ov)
	return nil
}

func printOverview(out io.Writer, ov *app.Overview) {
	fmt.Fprintf(out, "=== %s ===\n", ov.Symbol)

	if q := ov.Quote; q != nil {
		fmt.Fprintf(out, "Price:     %s (%+.2f%%)\n", core.FormatINR(q.Price), q.ChangePercent())
		fmt.Fprintf(out, "Day range: %s - %s\n", core.FormatINR(q.DayLow), core.FormatINR(q.DayHigh))
	}

	if r := ov.Indicators; r != nil {
		fmt.Fprintf(out, "\nIndicators (as of %s, %d bars)\n", r.AsOf.Format("2006-01-02"), r.Bars)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

		periods := make([]int, 0, len(r.Bundle.MovingAverages))
		for p := range r.Bundle.MovingAverages {
			periods = append(periods, p)
		}
		sort.Ints(periods)
		for _, p := range periods {
			fmt.Fprintf(w, "  SMA %d\t%s\n", p, optional(r.Bundle.MovingAverages[p]))
		}
		fmt.Fprintf(w, "  RSI\t%s\t%s\n", optional(r.Bundle.RSI.Current), r.Bundle.RSI.Signal)
		fmt.Fprintf(w, "  MACD\t%s\t%s\n", optional(r.Bundle.MACD.MACD), r.Bundle.MACD.Trend)
		if pp := r.Bundle.PivotPoints; pp.Available {
			fmt.Fprintf(w, "  Pivot\t%s\tS1 %s / R1 %s\n",
				core.FormatINR(pp.Pivot), core.FormatINR(pp.Support1), core.FormatINR(pp.Resistance1))
		}
		w.Flush()
	}

	if p := ov.Prediction; p != nil {
		fmt.Fprintf(out, "\nForecast (%s)\n", p.Estimator)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  DATE\tPREDICTED\tLOWER\tUPPER")
		for i := range p.Predictions {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.Dates[i].Format("2006-01-02"),
				core.FormatINR(p.Predictions[i]), core.FormatINR(p.Lower[i]), core.FormatINR(p.Upper[i]))
		}
		w.Flush()
	}

	if s := ov.Sentiment; s != nil && s.Summary != nil {
		sum := s.Summary
		fmt.Fprintf(out, "\nSentiment for %q: %s (score %.3f, confidence %.2f, %d sources)\n",
			s.Query, sum.Category, sum.Score, sum.Confidence, sum.Sources)
		for i, item := range s.News {
			if i == 5 {
				break
			}
			fmt.Fprintf(out, "  - %s\n", item.Title)
		}
	}

	if len(ov.Errors) > 0 {
		parts := make([]string, 0, len(ov.Errors))
		for part := range ov.Errors {
			parts = append(parts, part)
		}
		sort.Strings(parts)
		fmt.Fprintln(out, "\nUnavailable:")
		for _, part := range parts {
			fmt.Fprintf(out, "  %s: %s\n", part, ov.Errors[part].Message)
		}
	}
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
