package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AssetType is the asset class of a holding. It decides which quote providers are asked.
type AssetType string

const (
	AssetStock  AssetType = "STOCK"
	AssetETF    AssetType = "ETF"
	AssetCrypto AssetType = "CRYPTO"
)

// ParseAssetType accepts any casing ("crypto", "Stock") and reports whether the value is known.
func ParseAssetType(s string) (AssetType, bool) {
	switch t := AssetType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AssetStock, AssetETF, AssetCrypto:
		return t, true
	default:
		return "", false
	}
}

// Holding is a position in one symbol: quantity plus cost basis per unit.
type Holding struct {
	Base
	PortfolioID  string          `gorm:"type:uuid;index;not null" json:"portfolioId"`
	Symbol       string          `gorm:"index;not null" json:"symbol"`
	AssetType    AssetType       `gorm:"not null" json:"assetType"`
	Quantity     decimal.Decimal `gorm:"type:text;not null" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"type:text;not null" json:"averagePrice"`
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QuoteKey identifies a price by asset class and ticker. The same ticker can name different
// assets in different classes.
func QuoteKey(assetType AssetType, symbol string) string {
	return string(assetType) + ":" + symbol
}

// QuoteKey is the key of this holding's price.
func (h Holding) QuoteKey() string { return QuoteKey(h.AssetType, h.Symbol) }
