package valuation

import (
	"testing"

	"findash/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func holding(symbol, qty, avg string) models.Holding {
	t := models.AssetStock
	if symbol == "BTC" || symbol == "ETH" {
		t = models.AssetCrypto
	}
	return models.Holding{Symbol: symbol, AssetType: t, Quantity: d(qty), AveragePrice: d(avg)}
}

var (
	aaplKey = models.QuoteKey(models.AssetStock, "AAPL")
	ethKey  = models.QuoteKey(models.AssetCrypto, "ETH")
)

func scenarioHoldings() []models.Holding {
	return []models.Holding{
		holding("AAPL", "2", "150"),
		holding("BTC", "0.5", "20000"),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestValuate_Empty(t *testing.T) {
	s := NewEngine(nil).Valuate(nil, NoPrices)

	assertDecimal(t, "0", s.CurrentValue)
	assertDecimal(t, "0", s.InvestedValue)
	assertDecimal(t, "0", s.PnL)
	assertDecimal(t, "0", s.PnLPercent)
}

func TestValuate_InvestedIsQuantityTimesAverage(t *testing.T) {
	cases := []struct{ qty, avg, want string }{
		{"1", "1", "1"},
		{"0.5", "20000", "10000"},
		{"3.25", "17.04", "55.38"},
		{"0.00000001", "65000", "0.00065"},
	}
	e := NewEngine(nil)
	for _, tc := range cases {
		s := e.Valuate([]models.Holding{holding("X", tc.qty, tc.avg)}, NoPrices)
		assertDecimal(t, tc.want, s.InvestedValue)
	}
}

func TestValuate_NoLivePrices(t *testing.T) {
	s := NewEngine(CostBasisFallback).Valuate(scenarioHoldings(), NoPrices)

	assertDecimal(t, "10300", s.CurrentValue)
	assertDecimal(t, "10300", s.InvestedValue)
	assertDecimal(t, "0", s.PnL)
	assertDecimal(t, "0", s.PnLPercent)
}

func TestValuate_PartialLivePrices(t *testing.T) {
	prices := FromMap(map[string]decimal.Decimal{aaplKey: d("160")})
	s := NewEngine(CostBasisFallback).Valuate(scenarioHoldings(), prices)

	assertDecimal(t, "10320", s.CurrentValue)
	assertDecimal(t, "10300", s.InvestedValue)
	assertDecimal(t, "20", s.PnL)
	assert.Equal(t, "0.194", s.PnLPercent.StringFixed(3))
}

func TestValuate_Idempotent(t *testing.T) {
	e := NewEngine(nil)
	prices := FromMap(map[string]decimal.Decimal{aaplKey: d("161.37")})

	first := e.Valuate(scenarioHoldings(), prices)
	second := e.Valuate(scenarioHoldings(), prices)

	assert.Equal(t, first, second)
}

func TestValuate_CustomFallbackPolicy(t *testing.T) {
	zero := func(models.Holding) decimal.Decimal { return decimal.Zero }
	s := NewEngine(zero).Valuate(scenarioHoldings(), NoPrices)

	assertDecimal(t, "0", s.CurrentValue)
	assertDecimal(t, "-10300", s.PnL)
	assertDecimal(t, "-100", s.PnLPercent)
}

func TestAggregate_MatchesFlattened(t *testing.T) {
	e := NewEngine(nil)
	prices := FromMap(map[string]decimal.Decimal{aaplKey: d("160"), ethKey: d("1800")})

	p1 := []models.Holding{holding("AAPL", "2", "150")}
	p2 := []models.Holding{holding("BTC", "0.5", "20000"), holding("ETH", "4", "2000")}

	agg := Aggregate(e.Valuate(p1, prices), e.Valuate(p2, prices))
	flat := e.Valuate(append(append([]models.Holding{}, p1...), p2...), prices)

	assert.True(t, agg.CurrentValue.Equal(flat.CurrentValue))
	assert.True(t, agg.InvestedValue.Equal(flat.InvestedValue))
	assert.True(t, agg.PnL.Equal(flat.PnL))
	assert.True(t, agg.PnLPercent.Equal(flat.PnLPercent))
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate()
	assertDecimal(t, "0", s.PnLPercent)
}

func TestLines(t *testing.T) {
	prices := FromMap(map[string]decimal.Decimal{aaplKey: d("160")})
	lines := NewEngine(nil).Lines(scenarioHoldings(), prices)
	require.Len(t, lines, 2)

	assert.Equal(t, SourceLive, lines[0].PriceSource)
	assertDecimal(t, "320", lines[0].CurrentValue)
	assertDecimal(t, "20", lines[0].PnL)

	assert.Equal(t, SourceFallback, lines[1].PriceSource)
	assertDecimal(t, "20000", lines[1].Price)
	assertDecimal(t, "10000", lines[1].CurrentValue)

	total := lines[0].WeightPercent.Add(lines[1].WeightPercent)
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestFromMap_KeysByAssetType(t *testing.T) {
	prices := FromMap(map[string]decimal.Decimal{
		models.QuoteKey(models.AssetStock, "COIN"):  d("250"),
		models.QuoteKey(models.AssetCrypto, "COIN"): d("0.12"),
	})
	stock := models.Holding{Symbol: "COIN", AssetType: models.AssetStock, Quantity: d("1"), AveragePrice: d("200")}
	crypto := models.Holding{Symbol: "COIN", AssetType: models.AssetCrypto, Quantity: d("1000"), AveragePrice: d("0.1")}

	lines := NewEngine(nil).Lines([]models.Holding{stock, crypto}, prices)
	require.Len(t, lines, 2)
	assertDecimal(t, "250", lines[0].Price)
	assertDecimal(t, "0.12", lines[1].Price)
	assertDecimal(t, "120", lines[1].CurrentValue)

	_, ok := prices(models.Holding{Symbol: "COIN", AssetType: models.AssetETF})
	assert.False(t, ok)
}
