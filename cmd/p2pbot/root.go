package main

import (
	"log/slog"
	"os"

	"github.com/alejandrodnm/p2pbot/config"
	"github.com/alejandrodnm/p2pbot/internal/adapters/p2p"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "p2pbot",
	Short: "Binance P2P spread scanner with a Telegram trade journal",
	Long: `p2pbot samples the best BUY and SELL adverts of a P2P pair, alerts the
operator on Telegram when the spread reaches the target, and keeps a ledger
of the trades the operator confirms.

Commands:
  run     - scanner + Telegram bot
  check   - one scan, printed to the console
  stats   - aggregate of the recorded trades for a period
  trades  - list the recorded trades`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")
}

// loadConfig carga la configuración, aplica los flags globales e instala el logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", configPath)
		return nil, err
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func newPriceSource(cfg *config.Config) *p2p.Client {
	return p2p.NewClient(p2p.Options{
		BaseURL: cfg.P2P.BaseURL,
		Asset:   cfg.P2P.Asset,
		Fiat:    cfg.P2P.Fiat,
		Rows:    cfg.P2P.Rows,
		Timeout: cfg.RequestTimeout(),
	})
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
