package operator

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/scanner"
)

const clockLayout = "15:04:05"

func statusLabel(running bool) string {
	if running {
		return "🟢 Running"
	}
	return "🔴 Stopped"
}

func (s *Service) statusText(title string, st scanner.Status) string {
	return fmt.Sprintf("%s\n\nStatus: %s\nInterval: %ds\nYield Target: %s %s",
		title, statusLabel(st.Running), int(st.Interval.Seconds()), st.Threshold, s.fiat)
}

func (s *Service) settingsText(st scanner.Status) string {
	return fmt.Sprintf("⚙️ Settings\n\nCurrent interval: %ds\nCurrent yield target: %s %s",
		int(st.Interval.Seconds()), st.Threshold, s.fiat)
}

func (s *Service) alertText(opp domain.Opportunity) string {
	return fmt.Sprintf("💰 Opportunity Found!\n\n🟢 Buy at: %s %s\n🔴 Sell at: %s %s\n📈 Profit: %s %s\n\nDid you take this trade?",
		opp.BuyPrice, s.fiat, opp.SellPrice, s.fiat, opp.Spread, s.fiat)
}

func (s *Service) checkText(opp domain.Opportunity, at time.Time) string {
	return fmt.Sprintf("✅ Manual Check:\n🟢 Buy: %s %s\n🔴 Sell: %s %s\n📈 Profit: %s %s\n\n🕐 %s",
		opp.BuyPrice, s.fiat, opp.SellPrice, s.fiat, opp.Spread, s.fiat, at.Format(clockLayout))
}

func (s *Service) statsText(st domain.Stats, ok bool, at time.Time) string {
	var b strings.Builder
	if !ok {
		b.WriteString("No trades found for this period.")
	} else {
		fmt.Fprintf(&b, "📊 Stats (%d days):\n", st.Days)
		fmt.Fprintf(&b, "🔢 Total trades: %d\n", st.Count)
		fmt.Fprintf(&b, "💰 Total invested: %s %s\n", st.TotalInvested.StringFixed(2), s.fiat)
		fmt.Fprintf(&b, "📈 Total profit: %s %s\n", st.TotalProfit.StringFixed(2), s.fiat)
		fmt.Fprintf(&b, "📊 Average profit: %s %s\n", st.AvgProfit.StringFixed(2), s.fiat)
		fmt.Fprintf(&b, "📊 ROI: %s%%", st.ROIPercent.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n\n🕐 Updated: %s", at.Format(clockLayout))
	return b.String()
}

func (s *Service) tradesText(trades []domain.TradeRecord) string {
	if len(trades) == 0 {
		return "📋 No trades recorded yet."
	}
	recent, omitted := domain.Recent(trades, s.recentLimit)

	var b strings.Builder
	b.WriteString("📋 All Trades:\n\n")
	for i, t := range recent {
		fmt.Fprintf(&b, "%d. %s - %s %s → +%s %s\n",
			i+1, t.Date.Local().Format("01/02 15:04"),
			t.Amount.StringFixed(2), s.fiat, t.Profit.StringFixed(2), s.fiat)
	}
	if omitted > 0 {
		fmt.Fprintf(&b, "\n... and %d more trades", omitted)
	}
	return b.String()
}

func (s *Service) recordedText(t domain.TradeRecord) string {
	return fmt.Sprintf("✅ Trade recorded!\n💰 Amount: %s %s\n📈 Profit: %s %s",
		t.Amount.StringFixed(2), s.fiat, t.Profit.StringFixed(2), s.fiat)
}
