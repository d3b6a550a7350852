package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"findash/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const quoteAsset = "USDT"

// Binance quotes crypto assets against USDT from /ticker/price.
type Binance struct {
	client *client
}

// NewBinance creates a Binance provider. The public ticker needs no key.
func NewBinance(cfg config.Pricing, logger *zap.Logger) *Binance {
	return &Binance{
		client: newClient(cfg.Binance.BaseURL, cfg.Timeout, cfg.RateLimit, cfg.RateLimitBurst, cfg.MaxRetries,
			logger.Named("binance")),
	}
}

// TickerPrice represents the response for a single ticker price.
type TickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

func (b *Binance) Name() Source { return SourceBinance }

// tradingPair turns "btc" or "BTC/USDT" style input into "BTCUSDT".
func tradingPair(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	if strings.HasSuffix(s, quoteAsset) && len(s) > len(quoteAsset) {
		return s
	}
	return s + quoteAsset
}

// Quote returns ErrNoData for symbols Binance does not list (it answers 400).
func (b *Binance) Quote(ctx context.Context, symbol string) (Quote, error) {
	var res TickerPrice
	err := b.client.get(ctx, "/ticker/price", map[string]string{"symbol": tradingPair(symbol)}, &res)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return Quote{}, fmt.Errorf("binance %s: %w", symbol, ErrNoData)
		}
		return Quote{}, fmt.Errorf("binance %s: %w: %v", symbol, ErrUnavailable, err)
	}
	if !res.Price.IsPositive() {
		return Quote{}, fmt.Errorf("binance %s: %w", symbol, ErrNoData)
	}
	return newQuote(symbol, res.Price, quoteAsset, SourceBinance), nil
}
