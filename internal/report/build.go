package report

import (
	"findash/internal/models"
	"findash/internal/valuation"
)

// Build values each portfolio with the same price function, so every row of a report is
// computed from one price snapshot.
func Build(engine *valuation.Engine, portfolios []models.Portfolio, priceOf valuation.PriceFunc) []PortfolioValuation {
	out := make([]PortfolioValuation, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, PortfolioValuation{
			Portfolio: p,
			Summary:   engine.Valuate(p.Holdings, priceOf),
			Lines:     engine.Lines(p.Holdings, priceOf),
		})
	}
	return out
}
