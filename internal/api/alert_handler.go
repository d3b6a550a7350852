package api

import (
	"context"
	"net/http"

	"findash/internal/alert"
	"findash/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type alertRequest struct {
	HoldingID      string              `json:"holdingId"`
	Type           string              `json:"type"`
	AlertType      string              `json:"alertType"`
	TargetPrice    decimal.NullDecimal `json:"targetPrice"`
	PercentChange  decimal.NullDecimal `json:"percentChange"`
	ReferencePrice decimal.NullDecimal `json:"referencePrice"`
}

func parseAlertType(s string) (models.AlertType, bool) {
	switch t := models.AlertType(s); t {
	case models.AlertPriceUp, models.AlertPriceDown, models.AlertPercentChange:
		return t, true
	default:
		return "", false
	}
}

// toAlert validates the request. Fields that do not belong to the alert type are dropped.
func (r alertRequest) toAlert() (models.Alert, error) {
	raw := r.Type
	if raw == "" {
		raw = r.AlertType
	}
	t, ok := parseAlertType(raw)
	if !ok {
		return models.Alert{}, invalid("type must be PRICE_UP, PRICE_DOWN or PERCENT_CHANGE")
	}
	a := models.Alert{AlertType: t, IsActive: true}

	switch t {
	case models.AlertPriceUp, models.AlertPriceDown:
		if !r.TargetPrice.Valid || !r.TargetPrice.Decimal.IsPositive() {
			return models.Alert{}, invalid("targetPrice must be greater than 0")
		}
		a.TargetPrice = r.TargetPrice
	case models.AlertPercentChange:
		if !r.PercentChange.Valid || !r.PercentChange.Decimal.IsPositive() {
			return models.Alert{}, invalid("percentChange must be greater than 0")
		}
		a.PercentChange = r.PercentChange
		if r.ReferencePrice.Valid {
			if !r.ReferencePrice.Decimal.IsPositive() {
				return models.Alert{}, invalid("referencePrice must be greater than 0")
			}
			a.ReferencePrice = r.ReferencePrice
		}
	}
	return a, nil
}

// referencePrice is the live quote, or the holding's cost basis when no quote is available.
func (s *Server) referencePrice(ctx context.Context, h *models.Holding) decimal.Decimal {
	if s.prices != nil {
		q, err := s.prices.GetPrice(ctx, h.Symbol, h.AssetType)
		if err == nil {
			return q.Price
		}
		s.logger.Debug("No live reference price, using average price",
			zap.String("symbol", h.Symbol), zap.Error(err))
	}
	return h.AveragePrice
}

// ownedAlert loads an alert and checks it belongs to the caller.
func (s *Server) ownedAlert(c *gin.Context, id string) (*models.Alert, error) {
	a, err := s.store.FindAlertByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if a.UserID != currentUserID(c) {
		return nil, errForbidden
	}
	return a, nil
}

func (s *Server) listAlerts(c *gin.Context) {
	alerts, err := s.store.ListAlertsByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) listHoldingAlerts(c *gin.Context) {
	h, err := s.ownedHolding(c, c.Param("holdingId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	alerts, err := s.store.ListAlertsByHolding(c.Request.Context(), h.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// createAlert serves both POST /alerts (holdingId in the body) and
// POST /alerts/holding/:holdingId.
func (s *Server) createAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, invalid("malformed body"))
		return
	}
	if id := c.Param("holdingId"); id != "" {
		req.HoldingID = id
	}
	if req.HoldingID == "" {
		s.respondError(c, invalid("holdingId is required"))
		return
	}
	a, err := req.toAlert()
	if err != nil {
		s.respondError(c, err)
		return
	}
	h, err := s.ownedHolding(c, req.HoldingID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	a.UserID = currentUserID(c)
	a.HoldingID = h.ID
	a.Symbol = h.Symbol
	if a.AlertType == models.AlertPercentChange && !a.ReferencePrice.Valid {
		a.ReferencePrice = decimal.NewNullDecimal(s.referencePrice(ctx, h))
	}
	if _, err := alert.ConditionOf(a); err != nil {
		s.respondError(c, invalid("%v", err))
		return
	}
	if err := s.store.CreateAlert(ctx, &a); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) getAlert(c *gin.Context) {
	a, err := s.ownedAlert(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAlert(c *gin.Context) {
	a, err := s.ownedAlert(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteAlert(c.Request.Context(), a.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "alert deleted"})
}

// toggleAlert pauses or resumes scanning. A triggered alert stays triggered.
func (s *Server) toggleAlert(c *gin.Context) {
	a, err := s.ownedAlert(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.store.ToggleAlert(c.Request.Context(), a.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
