package pricing

import (
	"context"
	"fmt"

	"findash/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Finnhub quotes stocks and ETFs from the /quote endpoint.
type Finnhub struct {
	client *client
	apiKey string
}

// NewFinnhub creates a Finnhub provider.
func NewFinnhub(cfg config.Pricing, logger *zap.Logger) *Finnhub {
	return &Finnhub{
		client: newClient(cfg.Finnhub.BaseURL, cfg.Timeout, cfg.RateLimit, cfg.RateLimitBurst, cfg.MaxRetries,
			logger.Named("finnhub")),
		apiKey: cfg.Finnhub.APIKey,
	}
}

type finnhubQuote struct {
	Current decimal.Decimal `json:"c"`
}

func (f *Finnhub) Name() Source { return SourceFinnhub }

// Quote returns ErrNoData when Finnhub reports a zero current price, which is what it does
// for unknown symbols.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (Quote, error) {
	if f.apiKey == "" {
		return Quote{}, ErrNotConfigured
	}
	var res finnhubQuote
	err := f.client.get(ctx, "/quote", map[string]string{"symbol": symbol, "token": f.apiKey}, &res)
	if err != nil {
		return Quote{}, fmt.Errorf("finnhub %s: %w: %v", symbol, ErrUnavailable, err)
	}
	if !res.Current.IsPositive() {
		return Quote{}, fmt.Errorf("finnhub %s: %w", symbol, ErrNoData)
	}
	return newQuote(symbol, res.Current, "USD", SourceFinnhub), nil
}
