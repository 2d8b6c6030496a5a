package main

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/adapters/notify"
	"github.com/alejandrodnm/p2pbot/internal/adapters/storage"
	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals, average profit and ROI for a period",
	Example: `  p2pbot stats
  p2pbot stats --period weekly`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List the recorded trades",
	Args:  cobra.NoArgs,
	RunE:  runTrades,
}

var (
	statsPeriod string
	tradesLimit int
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tradesCmd)

	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "daily", "daily | weekly | monthly")
	tradesCmd.Flags().IntVarP(&tradesLimit, "limit", "n", 10, "show the last n trades (0 = all)")
}

func loadTrades(cmd *cobra.Command) ([]domain.TradeRecord, *notify.Console, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	ledger, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()

	trades, err := ledger.All(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("read ledger: %w", err)
	}
	return trades, notify.NewConsoleWriter(cmd.OutOrStdout(), cfg.P2P.Fiat), nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	period, ok := domain.ParsePeriod(statsPeriod)
	if !ok {
		return fmt.Errorf("invalid period %q: want daily, weekly or monthly", statsPeriod)
	}

	trades, console, err := loadTrades(cmd)
	if err != nil {
		return err
	}

	st, ok := domain.Aggregate(trades, period.Days(), time.Now())
	console.PrintStats(period, st, ok)
	return nil
}

func runTrades(cmd *cobra.Command, _ []string) error {
	trades, console, err := loadTrades(cmd)
	if err != nil {
		return err
	}

	if tradesLimit <= 0 {
		console.PrintTrades(trades, 0)
		return nil
	}
	recent, omitted := domain.Recent(trades, tradesLimit)
	console.PrintTrades(recent, omitted)
	return nil
}
