package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func quotes(buy, sell string) (Quote, Quote) {
	return Quote{Side: SideBuy, Price: d(buy)}, Quote{Side: SideSell, Price: d(sell)}
}

func TestDetect_Qualifies(t *testing.T) {
	buy, sell := quotes("1.500", "1.520")
	opp := Detect(buy, sell, d("0.01"))

	assert.True(t, d("0.020").Equal(opp.Spread), "spread = %s", opp.Spread)
	assert.True(t, opp.Qualifies)
	assert.NotEmpty(t, opp.ID)
	assert.False(t, opp.ObservedAt.IsZero())
}

func TestDetect_BoundaryIsInclusive(t *testing.T) {
	buy, sell := quotes("1.700", "1.710")
	opp := Detect(buy, sell, d("0.01"))
	assert.True(t, opp.Qualifies, "spread == threshold debe calificar")
}

func TestDetect_BelowThreshold(t *testing.T) {
	buy, sell := quotes("1.700", "1.705")
	opp := Detect(buy, sell, d("0.01"))
	assert.False(t, opp.Qualifies)
	assert.True(t, d("0.005").Equal(opp.Spread))
}

func TestDetect_NegativeSpreadAgainstNegativeThreshold(t *testing.T) {
	buy, sell := quotes("1.72", "1.70")
	opp := Detect(buy, sell, d("-0.05"))
	assert.True(t, d("-0.02").Equal(opp.Spread))
	assert.True(t, opp.Qualifies)
}

func TestSpreadOf_RoundsToThreePlaces(t *testing.T) {
	cases := []struct {
		buy, sell, want string
	}{
		{"1.7012", "1.7100", "0.009"},
		{"1.7000", "1.71049", "0.010"},
		{"1.7000", "1.7105", "0.011"},
		{"2", "2", "0"},
	}
	for _, c := range cases {
		got := SpreadOf(d(c.buy), d(c.sell))
		require.True(t, d(c.want).Equal(got), "%s-%s: got %s want %s", c.sell, c.buy, got, c.want)
	}
}

func TestDetect_UniqueIDs(t *testing.T) {
	buy, sell := quotes("1", "2")
	a := Detect(buy, sell, d("0"))
	b := Detect(buy, sell, d("0"))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestOpportunity_SpreadPct(t *testing.T) {
	opp := Opportunity{BuyPrice: d("2"), Spread: d("0.02")}
	assert.True(t, d("1").Equal(opp.SpreadPct()))
	assert.True(t, Opportunity{}.SpreadPct().IsZero())
}
