package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/p2pbot/internal/adapters/notify"
	"github.com/alejandrodnm/p2pbot/internal/operator"
	"github.com/alejandrodnm/p2pbot/internal/scanner"
	"github.com/alejandrodnm/p2pbot/internal/workflow"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one scan and print the result",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsoleWriter(cmd.OutOrStdout(), cfg.P2P.Fiat)
	scan := scanner.New(
		scanner.Config{Interval: cfg.ScanInterval(), Threshold: cfg.Threshold()},
		newPriceSource(cfg),
		nil,
	)
	// check no registra trades: el workflow no necesita ledger.
	svc := operator.New(scan, workflow.New(nil, scan), nil, console, operator.WithFiat(cfg.P2P.Fiat))

	reply := svc.CheckNow(ctx)
	if scan.Snapshot().Last == nil {
		slog.Error("no data from P2P market", "pair", cfg.P2P.Asset+"/"+cfg.P2P.Fiat)
	}
	return console.Deliver(ctx, 0, reply)
}
