package pricing

import (
	"context"
	"fmt"
	"sync/atomic"

	"findash/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const globalQuotePrice = "05. price"

// AlphaVantage quotes stocks and ETFs from GLOBAL_QUOTE, rotating through its API keys.
type AlphaVantage struct {
	client *client
	keys   []string
	next   atomic.Uint64
}

// NewAlphaVantage creates an Alpha Vantage provider. Empty keys are dropped.
func NewAlphaVantage(cfg config.Pricing, logger *zap.Logger) *AlphaVantage {
	keys := make([]string, 0, len(cfg.AlphaVantage.APIKeys))
	for _, k := range cfg.AlphaVantage.APIKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return &AlphaVantage{
		client: newClient(cfg.AlphaVantage.BaseURL, cfg.Timeout, cfg.RateLimit, cfg.RateLimitBurst, cfg.MaxRetries,
			logger.Named("alpha_vantage")),
		keys: keys,
	}
}

type globalQuoteResponse struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	ErrorMessage string            `json:"Error Message"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
}

func (a *AlphaVantage) Name() Source { return SourceAlphaVantage }

// nextKey hands out keys round-robin.
func (a *AlphaVantage) nextKey() (string, bool) {
	if len(a.keys) == 0 {
		return "", false
	}
	n := a.next.Add(1) - 1
	return a.keys[n%uint64(len(a.keys))], true
}

// Quote returns ErrUnavailable when the key is throttled (Alpha Vantage answers 200 with a
// Note or Information message) and ErrNoData for unknown symbols.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (Quote, error) {
	key, ok := a.nextKey()
	if !ok {
		return Quote{}, ErrNotConfigured
	}

	var res globalQuoteResponse
	params := map[string]string{"function": "GLOBAL_QUOTE", "symbol": symbol, "apikey": key}
	if err := a.client.get(ctx, "/query", params, &res); err != nil {
		return Quote{}, fmt.Errorf("alpha vantage %s: %w: %v", symbol, ErrUnavailable, err)
	}

	switch {
	case res.Note != "" || res.Information != "":
		return Quote{}, fmt.Errorf("alpha vantage %s: %w: throttled", symbol, ErrUnavailable)
	case res.ErrorMessage != "" || len(res.GlobalQuote) == 0:
		return Quote{}, fmt.Errorf("alpha vantage %s: %w", symbol, ErrNoData)
	}

	price, err := decimal.NewFromString(res.GlobalQuote[globalQuotePrice])
	if err != nil || !price.IsPositive() {
		return Quote{}, fmt.Errorf("alpha vantage %s: %w", symbol, ErrNoData)
	}
	return newQuote(symbol, price, "USD", SourceAlphaVantage), nil
}
