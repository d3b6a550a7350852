// Package valuation computes market value and profit-and-loss for holdings and portfolios.
// Everything here is a pure function of its inputs; no prices are fetched.
package valuation

import (
	"findash/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceFunc returns the current price of a holding's asset, or false when none is known.
type PriceFunc func(h models.Holding) (decimal.Decimal, bool)

// NoPrices is a PriceFunc that never has a price.
func NoPrices(models.Holding) (decimal.Decimal, bool) { return decimal.Zero, false }

// FromMap builds a PriceFunc over prices keyed by models.QuoteKey.
func FromMap(prices map[string]decimal.Decimal) PriceFunc {
	return func(h models.Holding) (decimal.Decimal, bool) {
		p, ok := prices[h.QuoteKey()]
		return p, ok
	}
}

// FallbackPolicy picks the price used for a holding that has no live price.
type FallbackPolicy func(h models.Holding) decimal.Decimal

// CostBasisFallback values an unpriced holding at its average price, so it contributes
// zero unrealized P&L.
func CostBasisFallback(h models.Holding) decimal.Decimal { return h.AveragePrice }

// Summary is the derived valuation of a set of holdings.
type Summary struct {
	CurrentValue  decimal.Decimal `json:"currentValue"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercent    decimal.Decimal `json:"pnlPercent"`
}

// PriceSource tells whether a line was valued at a live or a fallback price.
type PriceSource string

const (
	SourceLive     PriceSource = "live"
	SourceFallback PriceSource = "fallback"
)

// Line is the valuation of a single holding.
type Line struct {
	Holding       models.Holding  `json:"holding"`
	Price         decimal.Decimal `json:"price"`
	PriceSource   PriceSource     `json:"priceSource"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	PnL           decimal.Decimal `json:"pnl"`
	WeightPercent decimal.Decimal `json:"weightPercent"`
}

// Engine values holdings with an explicit fallback policy.
type Engine struct {
	fallback FallbackPolicy
}

// NewEngine creates an engine. A nil policy means CostBasisFallback.
func NewEngine(fallback FallbackPolicy) *Engine {
	if fallback == nil {
		fallback = CostBasisFallback
	}
	return &Engine{fallback: fallback}
}

// Valuate sums invested and current value over holdings. An empty slice yields all zeros.
func (e *Engine) Valuate(holdings []models.Holding, priceOf PriceFunc) Summary {
	current, invested := decimal.Zero, decimal.Zero
	for _, h := range holdings {
		price, _ := e.priceFor(h, priceOf)
		current = current.Add(h.Quantity.Mul(price))
		invested = invested.Add(h.Quantity.Mul(h.AveragePrice))
	}
	return summarize(current, invested)
}

// Lines values each holding separately. Weights are shares of the total current value.
func (e *Engine) Lines(holdings []models.Holding, priceOf PriceFunc) []Line {
	lines := make([]Line, 0, len(holdings))
	total := decimal.Zero
	for _, h := range holdings {
		price, src := e.priceFor(h, priceOf)
		l := Line{
			Holding:       h,
			Price:         price,
			PriceSource:   src,
			CurrentValue:  h.Quantity.Mul(price),
			InvestedValue: h.Quantity.Mul(h.AveragePrice),
		}
		l.PnL = l.CurrentValue.Sub(l.InvestedValue)
		total = total.Add(l.CurrentValue)
		lines = append(lines, l)
	}
	for i := range lines {
		lines[i].WeightPercent = percentOf(lines[i].CurrentValue, total)
	}
	return lines
}

// Aggregate combines per-portfolio summaries. Values and P&L are summed; the percentage is
// recomputed from the sums rather than averaged.
func Aggregate(summaries ...Summary) Summary {
	current, invested := decimal.Zero, decimal.Zero
	for _, s := range summaries {
		current = current.Add(s.CurrentValue)
		invested = invested.Add(s.InvestedValue)
	}
	return summarize(current, invested)
}

func (e *Engine) priceFor(h models.Holding, priceOf PriceFunc) (decimal.Decimal, PriceSource) {
	if priceOf != nil {
		if p, ok := priceOf(h); ok {
			return p, SourceLive
		}
	}
	return e.fallback(h), SourceFallback
}

func summarize(current, invested decimal.Decimal) Summary {
	pnl := current.Sub(invested)
	return Summary{
		CurrentValue:  current,
		InvestedValue: invested,
		PnL:           pnl,
		PnLPercent:    percentOf(pnl, invested),
	}
}

// percentOf returns part/whole*100, or zero when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
