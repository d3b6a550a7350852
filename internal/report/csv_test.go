package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"findash/internal/models"
	"findash/internal/valuation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportedAt = time.Date(2026, 4, 12, 15, 4, 5, 0, time.UTC)

func corePortfolio() PortfolioValuation {
	holdings := []models.Holding{
		{Symbol: "AAPL", AssetType: models.AssetStock, Quantity: decimal.NewFromInt(2), AveragePrice: decimal.NewFromInt(150)},
		{Symbol: "BTC", AssetType: models.AssetCrypto, Quantity: decimal.RequireFromString("0.5"), AveragePrice: decimal.NewFromInt(20000)},
	}
	prices := valuation.FromMap(map[string]decimal.Decimal{models.QuoteKey(models.AssetStock, "AAPL"): decimal.NewFromInt(160)})
	e := valuation.NewEngine(nil)
	return PortfolioValuation{
		Portfolio: models.Portfolio{Name: "Core Holdings", Holdings: holdings},
		Summary:   e.Valuate(holdings, prices),
		Lines:     e.Lines(holdings, prices),
	}
}

func TestWritePortfolio(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePortfolio(&buf, corePortfolio(), exportedAt))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\ufeff"), "output starts with a BOM")
	assert.Contains(t, out, "Portfolio,Core Holdings\n")
	assert.Contains(t, out, "Exported At,2026-04-12T15:04:05Z\n")
	assert.Contains(t, out, "Current Value,10320.00\n")
	assert.Contains(t, out, "P&L,20.00\n")
	assert.Contains(t, out, "Performance %,0.19\n")
	assert.Contains(t, out, "Symbol,Quantity,Average Price,Price,Price Source,Current Value,Invested Value,P&L,Weight %,Type\n")
	assert.Contains(t, out, "AAPL,2,150.00,160.00,live,320.00,300.00,20.00,3.10,STOCK\n")
	assert.Contains(t, out, "BTC,0.5,20000.00,20000.00,fallback,10000.00,10000.00,0.00,96.90,CRYPTO\n")
}

func TestWriteAll(t *testing.T) {
	second := PortfolioValuation{
		Portfolio: models.Portfolio{Name: "Cash"},
		Summary: valuation.Summary{
			CurrentValue:  decimal.NewFromInt(90),
			InvestedValue: decimal.NewFromInt(100),
			PnL:           decimal.NewFromInt(-10),
			PnLPercent:    decimal.NewFromInt(-10),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, []PortfolioValuation{corePortfolio(), second}, exportedAt))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\ufeffFindash Report\n"))
	assert.Contains(t, out, "Current Value,10410.00\n")
	assert.Contains(t, out, "Invested Value,10400.00\n")
	assert.Contains(t, out, "P&L,10.00\n")
	assert.Contains(t, out, "Portfolios,2\n")
	assert.Contains(t, out, "Name,Current Value,Invested Value,P&L,Performance %,Holdings\n")
	assert.Contains(t, out, "Core Holdings,10320.00,10300.00,20.00,0.19,2\n")
	assert.Contains(t, out, "Cash,90.00,100.00,-10.00,-10.00,0\n")
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "portfolio_Core_Holdings_2026-04-12.csv", PortfolioFilename("Core  Holdings", exportedAt))
	assert.Equal(t, "findash_report_2026-04-12.csv", AllFilename(exportedAt))
}

func TestBuild(t *testing.T) {
	core := corePortfolio()
	empty := models.Portfolio{Name: "Empty"}
	prices := valuation.FromMap(map[string]decimal.Decimal{models.QuoteKey(models.AssetStock, "AAPL"): decimal.NewFromInt(160)})

	pvs := Build(valuation.NewEngine(nil), []models.Portfolio{core.Portfolio, empty}, prices)
	require.Len(t, pvs, 2)
	assert.True(t, core.Summary.CurrentValue.Equal(pvs[0].Summary.CurrentValue))
	assert.Len(t, pvs[0].Lines, 2)
	assert.True(t, pvs[1].Summary.CurrentValue.IsZero())
	assert.Empty(t, pvs[1].Lines)
}
