package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/storage/history"
	"github.com/spf13/cobra"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect watchlist alert rules",
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check [symbol...]",
	Short: "Run one refresh cycle and print the alerts that fire",
	Long: `Check refreshes the given symbols (or the configured watchlist) once and
evaluates the configured alert rules against them. Notifiers are only
called with --notify.`,
	RunE: runAlertsCheck,
}

func init() {
	alertsCheckCmd.Flags().BoolVar(&alertsNotify, "notify", false, "send fired alerts to the configured notifiers")
	alertsCmd.AddCommand(alertsCheckCmd)
	rootCmd.AddCommand(alertsCmd)
}

func runAlertsCheck(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if len(cfg.Alerts.Rules) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("no alert rules configured"))
	}
	cfg.Refresh.Enabled = false
	cfg.Alerts.Enabled = true
	if !alertsNotify {
		cfg.Notifiers = nil
	}
	if len(args) > 0 {
		cfg.Watchlist = make([]config.WatchlistItem, len(args))
		for i, s := range args {
			cfg.Watchlist[i] = config.WatchlistItem{Symbol: s}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wiring application: %w", err)
	}
	defer rt.Close()

	rt.app.RunOnce(ctx)

	list, err := rt.app.Alerts(ctx, history.ListFilter{})
	if err != nil {
		return err
	}
	printAlerts(cmd.OutOrStdout(), list.Alerts, len(rt.app.Watchlist()))
	return nil
}

func printAlerts(out io.Writer, alerts []core.Alert, symbols int) {
	if len(alerts) == 0 {
		fmt.Fprintf(out, "No alerts fired for %d symbols.\n", symbols)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tRULE\tSEVERITY\tMETRIC\tVALUE")
	fmt.Fprintln(w, "------\t----\t--------\t------\t-----")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", a.Symbol, a.Rule, a.Severity, a.Metric, a.Value)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d alerts fired for %d symbols.\n", len(alerts), symbols)
}
