package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpreadPlaces es la precisión a la que se redondea el spread, igual que se muestra al operador.
const SpreadPlaces = 3

// Opportunity es el resultado de una muestra buy/sell del par.
// Se conserva aunque no califique: es la última observación del scanner.
type Opportunity struct {
	ID         string
	BuyPrice   decimal.Decimal
	SellPrice  decimal.Decimal
	Spread     decimal.Decimal // sell - buy, redondeado a SpreadPlaces
	Threshold  decimal.Decimal // umbral vigente al detectar
	Qualifies  bool            // Spread >= Threshold
	ObservedAt time.Time
}

// Detect calcula el spread de un par de quotes y lo compara con el umbral.
// La comparación es inclusiva: spread == threshold califica.
func Detect(buy, sell Quote, threshold decimal.Decimal) Opportunity {
	spread := SpreadOf(buy.Price, sell.Price)
	return Opportunity{
		ID:         uuid.NewString(),
		BuyPrice:   buy.Price,
		SellPrice:  sell.Price,
		Spread:     spread,
		Threshold:  threshold,
		Qualifies:  spread.GreaterThanOrEqual(threshold),
		ObservedAt: time.Now(),
	}
}

// SpreadOf devuelve sell - buy redondeado a SpreadPlaces decimales.
func SpreadOf(buy, sell decimal.Decimal) decimal.Decimal {
	return sell.Sub(buy).Round(SpreadPlaces)
}

// SpreadPct devuelve el spread como porcentaje del precio de compra.
func (o Opportunity) SpreadPct() decimal.Decimal {
	if o.BuyPrice.IsZero() {
		return decimal.Zero
	}
	return o.Spread.Div(o.BuyPrice).Mul(decimal.NewFromInt(100))
}
