package api

import (
	"errors"
	"net/http"

	"findash/internal/models"
	"findash/internal/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getPrice looks up one symbol. ?type= selects the provider chain and defaults to stock.
func (s *Server) getPrice(c *gin.Context) {
	assetType := models.AssetStock
	if raw := c.Query("type"); raw != "" {
		t, ok := models.ParseAssetType(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "type must be stock, etf or crypto"})
			return
		}
		assetType = t
	}
	if s.prices == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "price not found"})
		return
	}

	symbol := models.NormalizeSymbol(c.Param("symbol"))
	q, err := s.prices.GetPrice(c.Request.Context(), symbol, assetType)
	if err != nil {
		if !errors.Is(err, pricing.ErrNoData) && !errors.Is(err, pricing.ErrUnavailable) {
			s.logger.Error("Price lookup failed", zap.String("symbol", symbol), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "price not found"})
		return
	}

	c.Header("Cache-Control", "public, s-maxage=30, stale-while-revalidate=60")
	c.JSON(http.StatusOK, gin.H{"success": true, "data": q})
}
