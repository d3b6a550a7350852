package pricing

import (
	"context"
	"testing"
	"time"

	"findash/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProvider struct {
	mock.Mock
	name Source
}

func (m *mockProvider) Name() Source { return m.name }

func (m *mockProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(Quote), args.Error(1)
}

func quote(symbol, price string, src Source) Quote {
	return Quote{Symbol: symbol, Price: decimal.RequireFromString(price), Currency: "USD", Source: src}
}

func TestLookup_StockFallsBackToSecondProvider(t *testing.T) {
	finnhub := &mockProvider{name: SourceFinnhub}
	alpha := &mockProvider{name: SourceAlphaVantage}
	binance := &mockProvider{name: SourceBinance}
	finnhub.On("Quote", mock.Anything, "AAPL").Return(Quote{}, ErrNoData).Once()
	alpha.On("Quote", mock.Anything, "AAPL").Return(quote("AAPL", "160", SourceAlphaVantage), nil).Once()

	l := NewLookupWithProviders([]Provider{binance}, []Provider{finnhub, alpha}, 0, zap.NewNop())

	q, err := l.GetPrice(context.Background(), " aapl ", models.AssetStock)

	require.NoError(t, err)
	assert.Equal(t, SourceAlphaVantage, q.Source)
	finnhub.AssertExpectations(t)
	alpha.AssertExpectations(t)
	binance.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestLookup_CryptoUsesCryptoChain(t *testing.T) {
	finnhub := &mockProvider{name: SourceFinnhub}
	binance := &mockProvider{name: SourceBinance}
	binance.On("Quote", mock.Anything, "BTC").Return(quote("BTC", "64000", SourceBinance), nil).Once()

	l := NewLookupWithProviders([]Provider{binance}, []Provider{finnhub}, 0, zap.NewNop())

	q, err := l.GetPrice(context.Background(), "BTC", models.AssetCrypto)

	require.NoError(t, err)
	assert.Equal(t, SourceBinance, q.Source)
	finnhub.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestLookup_Errors(t *testing.T) {
	t.Run("AllNoData", func(t *testing.T) {
		a := &mockProvider{name: SourceFinnhub}
		b := &mockProvider{name: SourceAlphaVantage}
		a.On("Quote", mock.Anything, "ZZZ").Return(Quote{}, ErrNoData)
		b.On("Quote", mock.Anything, "ZZZ").Return(Quote{}, ErrNoData)
		l := NewLookupWithProviders(nil, []Provider{a, b}, 0, zap.NewNop())

		_, err := l.GetPrice(context.Background(), "ZZZ", models.AssetETF)

		assert.ErrorIs(t, err, ErrNoData)
		assert.NotErrorIs(t, err, ErrUnavailable)
	})

	t.Run("AnyOutageIsUnavailable", func(t *testing.T) {
		a := &mockProvider{name: SourceFinnhub}
		b := &mockProvider{name: SourceAlphaVantage}
		a.On("Quote", mock.Anything, "AAPL").Return(Quote{}, ErrNotConfigured)
		b.On("Quote", mock.Anything, "AAPL").Return(Quote{}, ErrNoData)
		l := NewLookupWithProviders(nil, []Provider{a, b}, 0, zap.NewNop())

		_, err := l.GetPrice(context.Background(), "AAPL", models.AssetStock)

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("EmptyChain", func(t *testing.T) {
		l := NewLookupWithProviders(nil, nil, 0, zap.NewNop())

		_, err := l.GetPrice(context.Background(), "BTC", models.AssetCrypto)

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("EmptySymbol", func(t *testing.T) {
		l := NewLookupWithProviders(nil, nil, 0, zap.NewNop())

		_, err := l.GetPrice(context.Background(), "  ", models.AssetStock)

		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestLookup_Cache(t *testing.T) {
	p := &mockProvider{name: SourceFinnhub}
	p.On("Quote", mock.Anything, "AAPL").Return(quote("AAPL", "160", SourceFinnhub), nil).Twice()

	l := NewLookupWithProviders(nil, []Provider{p}, 30*time.Second, zap.NewNop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := l.GetPrice(context.Background(), "AAPL", models.AssetStock)
		require.NoError(t, err)
	}
	p.AssertNumberOfCalls(t, "Quote", 1)

	now = now.Add(31 * time.Second)
	_, err := l.GetPrice(context.Background(), "AAPL", models.AssetStock)
	require.NoError(t, err)
	p.AssertNumberOfCalls(t, "Quote", 2)
}

func TestLookup_CacheIsPerAssetType(t *testing.T) {
	stock := &mockProvider{name: SourceFinnhub}
	crypto := &mockProvider{name: SourceBinance}
	stock.On("Quote", mock.Anything, "COIN").Return(quote("COIN", "250", SourceFinnhub), nil).Once()
	crypto.On("Quote", mock.Anything, "COIN").Return(quote("COIN", "0.12", SourceBinance), nil).Once()

	l := NewLookupWithProviders([]Provider{crypto}, []Provider{stock}, time.Minute, zap.NewNop())

	s, err := l.GetPrice(context.Background(), "COIN", models.AssetStock)
	require.NoError(t, err)
	c, err := l.GetPrice(context.Background(), "COIN", models.AssetCrypto)
	require.NoError(t, err)

	assert.Equal(t, "250", s.Price.String())
	assert.Equal(t, "0.12", c.Price.String())
}

func TestLookup_Snapshot(t *testing.T) {
	stock := &mockProvider{name: SourceFinnhub}
	crypto := &mockProvider{name: SourceBinance}
	stock.On("Quote", mock.Anything, "AAPL").Return(quote("AAPL", "160", SourceFinnhub), nil).Once()
	crypto.On("Quote", mock.Anything, "BTC").Return(Quote{}, ErrUnavailable).Once()

	l := NewLookupWithProviders([]Provider{crypto}, []Provider{stock}, 0, zap.NewNop())
	holdings := []models.Holding{
		{Symbol: "AAPL", AssetType: models.AssetStock},
		{Symbol: "AAPL", AssetType: models.AssetStock},
		{Symbol: "BTC", AssetType: models.AssetCrypto},
	}

	prices := l.Snapshot(context.Background(), holdings)

	require.Len(t, prices, 1)
	assert.True(t, prices[models.QuoteKey(models.AssetStock, "AAPL")].Equal(decimal.NewFromInt(160)))
	stock.AssertExpectations(t)
	crypto.AssertExpectations(t)
}

func TestLookup_Snapshot_SameTickerDifferentAssetType(t *testing.T) {
	stock := &mockProvider{name: SourceFinnhub}
	crypto := &mockProvider{name: SourceBinance}
	stock.On("Quote", mock.Anything, "COIN").Return(quote("COIN", "250", SourceFinnhub), nil).Once()
	crypto.On("Quote", mock.Anything, "COIN").Return(quote("COIN", "0.12", SourceBinance), nil).Once()

	l := NewLookupWithProviders([]Provider{crypto}, []Provider{stock}, time.Minute, zap.NewNop())
	holdings := []models.Holding{
		{Symbol: "COIN", AssetType: models.AssetStock},
		{Symbol: "COIN", AssetType: models.AssetCrypto},
	}

	prices := l.Snapshot(context.Background(), holdings)

	require.Len(t, prices, 2)
	assert.Equal(t, "250", prices[models.QuoteKey(models.AssetStock, "COIN")].String())
	assert.Equal(t, "0.12", prices[models.QuoteKey(models.AssetCrypto, "COIN")].String())
	stock.AssertExpectations(t)
	crypto.AssertExpectations(t)
}
