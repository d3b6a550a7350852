package api

import (
	"net/http"
	"unicode/utf8"

	"findash/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxSymbolLen = 10

var maxAveragePrice = decimal.NewFromInt(1_000_000)

// holdingRequest accepts the asset type as either "type" or "assetType".
type holdingRequest struct {
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"`
	AssetType    string          `json:"assetType"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

func (r holdingRequest) toHolding() (models.Holding, error) {
	symbol := models.NormalizeSymbol(r.Symbol)
	if n := utf8.RuneCountInString(symbol); n < 1 || n > maxSymbolLen {
		return models.Holding{}, invalid("symbol must be 1 to %d characters", maxSymbolLen)
	}
	raw := r.Type
	if raw == "" {
		raw = r.AssetType
	}
	assetType, ok := models.ParseAssetType(raw)
	if !ok {
		return models.Holding{}, invalid("type must be STOCK, ETF or CRYPTO")
	}
	if !r.Quantity.IsPositive() {
		return models.Holding{}, invalid("quantity must be greater than 0")
	}
	if !r.AveragePrice.IsPositive() || r.AveragePrice.GreaterThan(maxAveragePrice) {
		return models.Holding{}, invalid("averagePrice must be greater than 0 and at most %s", maxAveragePrice)
	}
	return models.Holding{Symbol: symbol, AssetType: assetType, Quantity: r.Quantity, AveragePrice: r.AveragePrice}, nil
}

// ownedHolding loads a holding and checks its portfolio belongs to the caller.
func (s *Server) ownedHolding(c *gin.Context, id string) (*models.Holding, error) {
	h, err := s.store.FindHoldingByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPortfolio(c, h.PortfolioID); err != nil {
		return nil, err
	}
	return h, nil
}

func bindHolding(c *gin.Context) (models.Holding, error) {
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.Holding{}, invalid("malformed body")
	}
	return req.toHolding()
}

// listHoldings takes a portfolio id.
func (s *Server) listHoldings(c *gin.Context) {
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	holdings, err := s.store.ListHoldings(c.Request.Context(), p.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	c.JSON(http.StatusOK, holdings)
}

// createHolding takes a portfolio id.
func (s *Server) createHolding(c *gin.Context) {
	h, err := bindHolding(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	h.PortfolioID = p.ID
	if err := s.store.CreateHolding(c.Request.Context(), &h); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

// updateHolding takes a holding id.
func (s *Server) updateHolding(c *gin.Context) {
	update, err := bindHolding(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	h, err := s.ownedHolding(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	h.Symbol = update.Symbol
	h.AssetType = update.AssetType
	h.Quantity = update.Quantity
	h.AveragePrice = update.AveragePrice
	if err := s.store.UpdateHolding(c.Request.Context(), h); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// deleteHolding takes a holding id. Alerts on the holding go with it.
func (s *Server) deleteHolding(c *gin.Context) {
	h, err := s.ownedHolding(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteHolding(c.Request.Context(), h.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "holding deleted"})
}
