package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Channel escribiendo en un writer.
type Console struct {
	out  io.Writer
	fiat string
	now  func() time.Time
}

var _ ports.Channel = (*Console)(nil)

// NewConsoleWriter crea un canal que escribe en w.
func NewConsoleWriter(w io.Writer, fiat string) *Console {
	return &Console{out: w, fiat: fiat, now: time.Now}
}

// Deliver imprime la respuesta. Las alertas además llevan la tabla de precios.
func (c *Console) Deliver(_ context.Context, operatorID int64, reply domain.Reply) error {
	if reply.Text == "" {
		return nil
	}
	fmt.Fprintf(c.out, "[%s] → %d\n", c.now().Format("15:04:05"), operatorID)
	fmt.Fprintln(c.out, reply.Text)
	if reply.Opportunity != nil {
		c.PrintObservation(*reply.Opportunity)
	}
	if labels := menuLabels(reply); len(labels) > 0 {
		fmt.Fprintf(c.out, "  [%s]\n", strings.Join(labels, "] ["))
	}
	return nil
}

// PrintObservation imprime una muestra buy/sell.
func (c *Console) PrintObservation(opp domain.Opportunity) {
	verdict := "below target"
	if opp.Qualifies {
		verdict = "OPPORTUNITY"
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Buy", "Sell", "Spread", "Spread %", "Target", "Verdict")
	table.Append(
		c.money(opp.BuyPrice.String()),
		c.money(opp.SellPrice.String()),
		c.money(opp.Spread.String()),
		opp.SpreadPct().StringFixed(3)+"%",
		c.money(opp.Threshold.String()),
		verdict,
	)
	table.Render()
}

// PrintStats imprime el agregado de una ventana.
func (c *Console) PrintStats(period domain.Period, st domain.Stats, ok bool) {
	if !ok {
		fmt.Fprintf(c.out, "No trades found for this period (%s, %d days).\n", period, period.Days())
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Period", "Trades", "Invested", "Profit", "Avg profit", "ROI")
	table.Append(
		fmt.Sprintf("%s (%dd)", period, st.Days),
		fmt.Sprintf("%d", st.Count),
		c.money(st.TotalInvested.StringFixed(2)),
		c.money(st.TotalProfit.StringFixed(2)),
		c.money(st.AvgProfit.StringFixed(2)),
		st.ROIPercent.StringFixed(2)+"%",
	)
	table.Render()
}

// PrintTrades imprime los trades en orden cronológico y cuántos se omitieron.
func (c *Console) PrintTrades(trades []domain.TradeRecord, omitted int) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "No trades recorded yet.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Date", "Buy", "Sell", "Amount", "Profit")
	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", omitted+i+1),
			t.Date.Local().Format("2006-01-02 15:04"),
			t.BuyPrice.String(),
			t.SellPrice.String(),
			c.money(t.Amount.StringFixed(2)),
			"+"+c.money(t.Profit.StringFixed(2)),
		)
	}
	table.Render()

	if omitted > 0 {
		fmt.Fprintf(c.out, "  ... and %d more trades\n", omitted)
	}
}

func (c *Console) money(v string) string {
	return v + " " + c.fiat
}

func menuLabels(reply domain.Reply) []string {
	m := Markup(reply)
	if m == nil {
		return nil
	}
	var labels []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}
	return labels
}
