package domain

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Period es una ventana de reporte expresada en días.
type Period int

const (
	PeriodDaily   Period = 1
	PeriodWeekly  Period = 7
	PeriodMonthly Period = 30
)

// ParsePeriod acepta daily | weekly | monthly.
func ParsePeriod(v string) (Period, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "daily":
		return PeriodDaily, true
	case "weekly":
		return PeriodWeekly, true
	case "monthly":
		return PeriodMonthly, true
	}
	return 0, false
}

// Days devuelve la longitud de la ventana en días.
func (p Period) Days() int {
	return int(p)
}

func (p Period) String() string {
	switch p {
	case PeriodDaily:
		return "daily"
	case PeriodWeekly:
		return "weekly"
	case PeriodMonthly:
		return "monthly"
	}
	return "custom"
}

// Stats agrega los trades de una ventana.
type Stats struct {
	Days          int
	Count         int
	TotalInvested decimal.Decimal
	TotalProfit   decimal.Decimal
	AvgProfit     decimal.Decimal
	ROIPercent    decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Aggregate calcula las estadísticas de los trades con fecha >= now - days.
// Devuelve false si la ventana no tiene trades: "sin trades" no es lo mismo que stats en cero.
func Aggregate(trades []TradeRecord, days int, now time.Time) (Stats, bool) {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	window := lo.Filter(trades, func(t TradeRecord, _ int) bool {
		return !t.Date.Before(cutoff)
	})
	if len(window) == 0 {
		return Stats{Days: days}, false
	}

	invested := lo.Reduce(window, func(acc decimal.Decimal, t TradeRecord, _ int) decimal.Decimal {
		return acc.Add(t.Amount)
	}, decimal.Zero)
	profit := lo.Reduce(window, func(acc decimal.Decimal, t TradeRecord, _ int) decimal.Decimal {
		return acc.Add(t.Profit)
	}, decimal.Zero)

	roi := decimal.Zero
	if invested.IsPositive() {
		roi = profit.Div(invested).Mul(hundred)
	}

	return Stats{
		Days:          days,
		Count:         len(window),
		TotalInvested: invested,
		TotalProfit:   profit,
		AvgProfit:     profit.Div(decimal.NewFromInt(int64(len(window)))),
		ROIPercent:    roi,
	}, true
}

// Recent devuelve los últimos limit trades en orden cronológico y cuántos quedaron fuera.
func Recent(trades []TradeRecord, limit int) ([]TradeRecord, int) {
	if limit <= 0 {
		return nil, len(trades)
	}
	if len(trades) <= limit {
		return trades, 0
	}
	omitted := len(trades) - limit
	return trades[omitted:], omitted
}
