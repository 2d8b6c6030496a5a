package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/p2pbot/internal/adapters/notify"
	"github.com/alejandrodnm/p2pbot/internal/adapters/storage"
	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/operator"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	"github.com/alejandrodnm/p2pbot/internal/scanner"
	"github.com/alejandrodnm/p2pbot/internal/workflow"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Telegram bot and the scan loop",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("cannot start bot", "err", err)
		os.Exit(1)
	}

	slog.Info("p2pbot starting",
		"config", configPath,
		"pair", cfg.P2P.Asset+"/"+cfg.P2P.Fiat,
		"interval", cfg.ScanInterval(),
		"target_yield", cfg.Threshold(),
		"storage", cfg.Storage.Driver,
	)

	ledger, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "path", cfg.Storage.Path)
		os.Exit(1)
	}
	defer ledger.Close()

	bot, err := notify.NewTelegram(notify.TelegramOptions{
		Token:        cfg.Telegram.Token,
		AllowedUsers: cfg.Telegram.AllowedUsers,
	})
	if err != nil {
		slog.Error("failed to connect to telegram", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// El servicio es el notifier del scanner y el scanner es el tuner del workflow.
	var svc *operator.Service
	scan := scanner.New(
		scanner.Config{Interval: cfg.ScanInterval(), Threshold: cfg.Threshold()},
		newPriceSource(cfg),
		ports.NotifierFunc(func(ctx context.Context, opp domain.Opportunity) error {
			return svc.NotifyOpportunity(ctx, opp)
		}),
	)
	flow := workflow.New(ledger, scan)
	svc = operator.New(scan, flow, ledger, bot, operator.WithFiat(cfg.P2P.Fiat))

	if cfg.Scanner.Autostart {
		scan.Start(ctx)
	}

	bot.Run(ctx, svc)

	scan.Stop()
	scan.Wait()
	slog.Info("p2pbot stopped cleanly")
	return nil
}
