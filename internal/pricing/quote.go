// Package pricing fetches current market prices from Finnhub, Alpha Vantage and Binance.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable means no provider could be reached or all of them failed.
	ErrUnavailable = errors.New("price unavailable")
	// ErrNoData means a provider answered but had no usable price for the symbol.
	ErrNoData = errors.New("no price data")
	// ErrNotConfigured means the provider has no API key.
	ErrNotConfigured = errors.New("provider not configured")
)

// Source names a quote provider.
type Source string

const (
	SourceFinnhub      Source = "finnhub"
	SourceAlphaVantage Source = "alpha_vantage"
	SourceBinance      Source = "binance"
)

// Quote is a current price for one symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    Source          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// Provider returns a quote for a symbol from a single upstream.
type Provider interface {
	Name() Source
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// newQuote rounds the price to cents the way every provider reports it.
func newQuote(symbol string, price decimal.Decimal, currency string, src Source) Quote {
	return Quote{
		Symbol:    symbol,
		Price:     price.Round(2),
		Currency:  currency,
		Source:    src,
		Timestamp: time.Now().UTC(),
	}
}
