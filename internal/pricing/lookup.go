package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"findash/internal/config"
	"findash/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const snapshotWorkers = 4

// Lookup routes a symbol to the providers for its asset type, trying them in order and
// caching successful quotes for a short while.
type Lookup struct {
	logger *zap.Logger
	crypto []Provider
	stock  []Provider

	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote   Quote
	expires time.Time
}

// NewLookup wires Binance for crypto and Finnhub then Alpha Vantage for stocks and ETFs.
func NewLookup(cfg config.Pricing, logger *zap.Logger) *Lookup {
	return NewLookupWithProviders(
		[]Provider{NewBinance(cfg, logger)},
		[]Provider{NewFinnhub(cfg, logger), NewAlphaVantage(cfg, logger)},
		cfg.CacheTTL,
		logger,
	)
}

// NewLookupWithProviders builds a Lookup from explicit provider chains. A ttl of zero
// disables caching.
func NewLookupWithProviders(crypto, stock []Provider, ttl time.Duration, logger *zap.Logger) *Lookup {
	return &Lookup{
		logger: logger.Named("pricing"),
		crypto: crypto,
		stock:  stock,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cachedQuote),
	}
}

// GetPrice returns the first quote any provider in the chain can give. When every provider
// fails the error wraps ErrNoData if all of them answered without a price, ErrUnavailable
// otherwise.
func (l *Lookup) GetPrice(ctx context.Context, symbol string, assetType models.AssetType) (Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("empty symbol: %w", ErrNoData)
	}
	key := models.QuoteKey(assetType, symbol)
	if q, ok := l.cached(key); ok {
		return q, nil
	}

	chain := l.stock
	if assetType == models.AssetCrypto {
		chain = l.crypto
	}

	allNoData := len(chain) > 0
	var errs []error
	for _, p := range chain {
		q, err := p.Quote(ctx, symbol)
		if err == nil {
			l.store(key, q)
			return q, nil
		}
		if ctx.Err() != nil {
			return Quote{}, fmt.Errorf("%s: %w: %v", symbol, ErrUnavailable, ctx.Err())
		}
		l.logger.Debug("Provider had no price",
			zap.String("provider", string(p.Name())),
			zap.String("symbol", symbol),
			zap.Error(err))
		if !errors.Is(err, ErrNoData) {
			allNoData = false
		}
		errs = append(errs, err)
	}

	if allNoData {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return Quote{}, fmt.Errorf("%s: %w: %v", symbol, ErrUnavailable, errors.Join(errs...))
}

// Snapshot fetches prices for the distinct assets of the given holdings in parallel. The
// result is keyed by models.QuoteKey; assets without a price are absent from it.
func (l *Lookup) Snapshot(ctx context.Context, holdings []models.Holding) map[string]decimal.Decimal {
	var (
		mu     sync.Mutex
		prices = make(map[string]decimal.Decimal)
		seen   = make(map[string]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotWorkers)
	for _, h := range holdings {
		key := h.QuoteKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		h := h
		g.Go(func() error {
			q, err := l.GetPrice(gctx, h.Symbol, h.AssetType)
			if err != nil {
				return nil
			}
			mu.Lock()
			prices[key] = q.Price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

func (l *Lookup) cached(key string) (Quote, bool) {
	if l.ttl <= 0 {
		return Quote{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.cache[key]
	if !ok || !l.now().Before(c.expires) {
		return Quote{}, false
	}
	return c.quote, true
}

func (l *Lookup) store(key string, q Quote) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	l.cache[key] = cachedQuote{quote: q, expires: l.now().Add(l.ttl)}
	l.mu.Unlock()
}
