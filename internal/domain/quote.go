package domain

import "github.com/shopspring/decimal"

// Side es el lado del anuncio P2P consultado.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string {
	return string(s)
}

// Quote es el mejor precio publicado para un lado del par.
type Quote struct {
	Side  Side
	Price decimal.Decimal
}
