package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/adapters/notify"
	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func makeOpp(buy, sell, threshold string) domain.Opportunity {
	return domain.Detect(
		domain.Quote{Side: domain.SideBuy, Price: d(buy)},
		domain.Quote{Side: domain.SideSell, Price: d(sell)},
		d(threshold),
	)
}

func TestConsole_DeliverAlert(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")
	opp := makeOpp("1.500", "1.520", "0.01")

	err := c.Deliver(context.Background(), 42, domain.Reply{
		Text:        "💰 Opportunity Found!",
		Menu:        domain.MenuDecision,
		Opportunity: &opp,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "→ 42")
	assert.Contains(t, out, "Opportunity Found!")
	assert.Contains(t, out, "1.5 AZN")
	assert.Contains(t, out, "1.52 AZN")
	assert.Contains(t, out, "0.02 AZN")
	assert.Contains(t, out, "OPPORTUNITY")
	assert.Contains(t, out, "[✅ Bought]")
}

func TestConsole_DeliverEmptyReplyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")

	require.NoError(t, c.Deliver(context.Background(), 1, domain.Reply{}))
	assert.Empty(t, buf.String())
}

func TestConsole_PrintObservationBelowTarget(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")

	c.PrintObservation(makeOpp("1.700", "1.705", "0.01"))
	out := buf.String()
	assert.Contains(t, out, "0.005 AZN")
	assert.Contains(t, out, "below target")
	assert.NotContains(t, out, "OPPORTUNITY")
}

func TestConsole_PrintStats(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")

	c.PrintStats(domain.PeriodWeekly, domain.Stats{
		Days:          7,
		Count:         2,
		TotalInvested: d("400"),
		TotalProfit:   d("6"),
		AvgProfit:     d("3"),
		ROIPercent:    d("1.5"),
	}, true)

	out := buf.String()
	assert.Contains(t, out, "weekly (7d)")
	assert.Contains(t, out, "400.00 AZN")
	assert.Contains(t, out, "1.50%")
}

func TestConsole_PrintStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")

	c.PrintStats(domain.PeriodDaily, domain.Stats{Days: 1}, false)
	assert.Contains(t, buf.String(), "No trades found for this period")
}

func TestConsole_PrintTrades(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

	c.PrintTrades([]domain.TradeRecord{
		{Date: at, BuyPrice: d("1.5"), SellPrice: d("1.52"), Amount: d("100"), Profit: d("1.3333")},
	}, 3)

	out := buf.String()
	assert.Contains(t, out, "2025-03-14 09:30")
	assert.Contains(t, out, "+1.33 AZN")
	assert.Contains(t, out, "... and 3 more trades")
}

func TestConsole_PrintTradesEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, "AZN")

	c.PrintTrades(nil, 0)
	assert.Contains(t, buf.String(), "No trades recorded yet.")
}
