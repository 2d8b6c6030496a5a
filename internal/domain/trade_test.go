package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTradeRecord_Profit(t *testing.T) {
	// (100 / 1.5) × 0.020 = 1.3333...
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, err := NewTradeRecord(at, d("1.5"), d("1.52"), d("100"), d("0.020"))
	require.NoError(t, err)

	assert.True(t, d("1.333").Equal(rec.Profit.Round(3)), "profit = %s", rec.Profit)
	assert.Equal(t, at, rec.Date)
	assert.True(t, d("100").Equal(rec.Amount))
}

func TestNewTradeRecord_RejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-5"} {
		_, err := NewTradeRecord(time.Now(), d("1.5"), d("1.52"), d(amount), d("0.02"))
		assert.True(t, errors.Is(err, ErrInvalidAmount), "amount %s", amount)
	}
}

func TestNewTradeRecord_RejectsZeroBuyPrice(t *testing.T) {
	_, err := NewTradeRecord(time.Now(), d("0"), d("1.52"), d("10"), d("0.02"))
	assert.Error(t, err)
}

func TestRealizedProfit_ZeroBuyPrice(t *testing.T) {
	assert.True(t, RealizedProfit(d("10"), d("0"), d("1")).IsZero())
}
