// Package report renders portfolio valuations as CSV downloads.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"findash/internal/models"
	"findash/internal/valuation"

	"github.com/gocarina/gocsv"
)

// utf8BOM makes spreadsheet apps detect the encoding.
const utf8BOM = "\ufeff"

var whitespace = regexp.MustCompile(`\s+`)

// PortfolioValuation is one portfolio with its computed numbers.
type PortfolioValuation struct {
	Portfolio models.Portfolio
	Summary   valuation.Summary
	Lines     []valuation.Line
}

type holdingRow struct {
	Symbol        string `csv:"Symbol"`
	Quantity      string `csv:"Quantity"`
	AveragePrice  string `csv:"Average Price"`
	Price         string `csv:"Price"`
	PriceSource   string `csv:"Price Source"`
	CurrentValue  string `csv:"Current Value"`
	InvestedValue string `csv:"Invested Value"`
	PnL           string `csv:"P&L"`
	WeightPercent string `csv:"Weight %"`
	AssetType     string `csv:"Type"`
}

type portfolioRow struct {
	Name          string `csv:"Name"`
	CurrentValue  string `csv:"Current Value"`
	InvestedValue string `csv:"Invested Value"`
	PnL           string `csv:"P&L"`
	PnLPercent    string `csv:"Performance %"`
	Holdings      int    `csv:"Holdings"`
}

// WritePortfolio writes a single portfolio: a header block with its statistics, then one row
// per holding.
func WritePortfolio(w io.Writer, pv PortfolioValuation, at time.Time) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	s := pv.Summary
	err := writePreamble(w, [][]string{
		{"Portfolio", pv.Portfolio.Name},
		{"Exported At", at.UTC().Format(time.RFC3339)},
		{},
		{"Statistics"},
		{"Current Value", s.CurrentValue.StringFixed(2)},
		{"Invested Value", s.InvestedValue.StringFixed(2)},
		{"P&L", s.PnL.StringFixed(2)},
		{"Performance %", s.PnLPercent.StringFixed(2)},
		{"Holdings", strconv.Itoa(len(pv.Lines))},
		{},
	})
	if err != nil {
		return err
	}

	rows := make([]*holdingRow, 0, len(pv.Lines))
	for _, l := range pv.Lines {
		rows = append(rows, &holdingRow{
			Symbol:        l.Holding.Symbol,
			Quantity:      l.Holding.Quantity.String(),
			AveragePrice:  l.Holding.AveragePrice.StringFixed(2),
			Price:         l.Price.StringFixed(2),
			PriceSource:   string(l.PriceSource),
			CurrentValue:  l.CurrentValue.StringFixed(2),
			InvestedValue: l.InvestedValue.StringFixed(2),
			PnL:           l.PnL.StringFixed(2),
			WeightPercent: l.WeightPercent.StringFixed(2),
			AssetType:     string(l.Holding.AssetType),
		})
	}
	return marshalTable(w, rows)
}

// WriteAll writes the cross-portfolio report: global totals, then one row per portfolio.
func WriteAll(w io.Writer, portfolios []PortfolioValuation, at time.Time) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	summaries := make([]valuation.Summary, 0, len(portfolios))
	for _, pv := range portfolios {
		summaries = append(summaries, pv.Summary)
	}
	total := valuation.Aggregate(summaries...)

	err := writePreamble(w, [][]string{
		{"Findash Report"},
		{"Exported At", at.UTC().Format(time.RFC3339)},
		{},
		{"Summary"},
		{"Current Value", total.CurrentValue.StringFixed(2)},
		{"Invested Value", total.InvestedValue.StringFixed(2)},
		{"P&L", total.PnL.StringFixed(2)},
		{"Performance %", total.PnLPercent.StringFixed(2)},
		{"Portfolios", strconv.Itoa(len(portfolios))},
		{},
	})
	if err != nil {
		return err
	}

	rows := make([]*portfolioRow, 0, len(portfolios))
	for _, pv := range portfolios {
		rows = append(rows, &portfolioRow{
			Name:          pv.Portfolio.Name,
			CurrentValue:  pv.Summary.CurrentValue.StringFixed(2),
			InvestedValue: pv.Summary.InvestedValue.StringFixed(2),
			PnL:           pv.Summary.PnL.StringFixed(2),
			PnLPercent:    pv.Summary.PnLPercent.StringFixed(2),
			Holdings:      len(pv.Portfolio.Holdings),
		})
	}
	return marshalTable(w, rows)
}

// PortfolioFilename is the download name for a single portfolio export.
func PortfolioFilename(name string, at time.Time) string {
	return fmt.Sprintf("portfolio_%s_%s.csv", whitespace.ReplaceAllString(name, "_"), at.UTC().Format("2006-01-02"))
}

// AllFilename is the download name for the cross-portfolio export.
func AllFilename(at time.Time) string {
	return fmt.Sprintf("findash_report_%s.csv", at.UTC().Format("2006-01-02"))
}

func writePreamble(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	for _, r := range records {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// marshalTable writes a header row plus one row per element.
func marshalTable(w io.Writer, rows any) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}
