package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord es un trade confirmado por el operador. Inmutable una vez creado.
type TradeRecord struct {
	Date      time.Time
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Amount    decimal.Decimal // monto invertido en fiat, siempre > 0
	Profit    decimal.Decimal // calculado al crear, nunca se recalcula
}

// NewTradeRecord crea el registro calculando el profit realizado:
//
//	profit = (amount / buyPrice) × profitPerUnit
//
// Devuelve ErrInvalidAmount si amount no es positivo.
func NewTradeRecord(at time.Time, buyPrice, sellPrice, amount, profitPerUnit decimal.Decimal) (TradeRecord, error) {
	if !amount.IsPositive() {
		return TradeRecord{}, fmt.Errorf("domain.NewTradeRecord: amount %s: %w", amount, ErrInvalidAmount)
	}
	if !buyPrice.IsPositive() {
		return TradeRecord{}, fmt.Errorf("domain.NewTradeRecord: buy price %s must be positive", buyPrice)
	}
	return TradeRecord{
		Date:      at,
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		Amount:    amount,
		Profit:    RealizedProfit(amount, buyPrice, profitPerUnit),
	}, nil
}

// RealizedProfit devuelve las unidades compradas (amount / buyPrice) por la ganancia por unidad.
func RealizedProfit(amount, buyPrice, profitPerUnit decimal.Decimal) decimal.Decimal {
	if buyPrice.IsZero() {
		return decimal.Zero
	}
	return amount.Div(buyPrice).Mul(profitPerUnit)
}
