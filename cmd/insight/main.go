package main

import (
	"fmt"
	"os"

	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	debug     bool
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "INSIGHT - stock analytics for Indian equities",
	Long: `INSIGHT computes technical indicators, short-horizon price forecasts and
news sentiment for NSE/BSE listed symbols. It serves them over HTTP or
prints them from the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log encoding (json, console)")
}

func newLogger() (*zap.Logger, error) {
	return logger.New(logger.Options{Development: debug, Level: logLevel, Format: logFormat})
}

// loadConfig reads --config, or falls back to defaults, and validates it.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
