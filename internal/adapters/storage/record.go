package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/shopspring/decimal"
)

// tradeDoc es el formato persistido de un trade:
//
//	{"date": "...", "buy_price": 1.7, "sell_price": 1.72, "amount": 100, "profit": 1.17}
//
// Los importes se escriben como números JSON (no strings) sin pasar por float64.
type tradeDoc struct {
	Date      string      `json:"date"`
	BuyPrice  json.Number `json:"buy_price"`
	SellPrice json.Number `json:"sell_price"`
	Amount    json.Number `json:"amount"`
	Profit    json.Number `json:"profit"`
}

// dateLayouts acepta RFC3339 y el isoformat() sin zona que escribía la versión anterior del bot.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func toDoc(rec domain.TradeRecord) tradeDoc {
	return tradeDoc{
		Date:      rec.Date.Format(time.RFC3339Nano),
		BuyPrice:  json.Number(rec.BuyPrice.String()),
		SellPrice: json.Number(rec.SellPrice.String()),
		Amount:    json.Number(rec.Amount.String()),
		Profit:    json.Number(rec.Profit.String()),
	}
}

func fromDoc(doc tradeDoc) (domain.TradeRecord, error) {
	date, err := parseDate(doc.Date)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	var rec domain.TradeRecord
	rec.Date = date
	fields := []struct {
		name string
		raw  json.Number
		dst  *decimal.Decimal
	}{
		{"buy_price", doc.BuyPrice, &rec.BuyPrice},
		{"sell_price", doc.SellPrice, &rec.SellPrice},
		{"amount", doc.Amount, &rec.Amount},
		{"profit", doc.Profit, &rec.Profit},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw.String())
		if err != nil {
			return domain.TradeRecord{}, fmt.Errorf("field %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return rec, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: unsupported format", v)
}

// decodeLedger convierte el documento completo. Un solo registro inválido invalida el documento.
func decodeLedger(data []byte) ([]domain.TradeRecord, error) {
	var docs []tradeDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	trades := make([]domain.TradeRecord, 0, len(docs))
	for i, doc := range docs {
		rec, err := fromDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		trades = append(trades, rec)
	}
	return trades, nil
}

func encodeLedger(trades []domain.TradeRecord) ([]byte, error) {
	docs := make([]tradeDoc, len(trades))
	for i, rec := range trades {
		docs[i] = toDoc(rec)
	}
	return json.MarshalIndent(docs, "", "  ")
}
