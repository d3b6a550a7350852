package api

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"findash/internal/models"
	"findash/internal/valuation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxPortfolioName = 100

// portfolioResponse is a portfolio with its valuation flattened in.
type portfolioResponse struct {
	models.Portfolio
	TotalValue    decimal.Decimal `json:"totalValue"`
	InvestedValue decimal.Decimal `json:"investedValue"`
	PnL           decimal.Decimal `json:"pnl"`
	PnLPercent    decimal.Decimal `json:"pnlPercent"`
}

type summaryResponse struct {
	valuation.Summary
	Portfolios int `json:"portfolios"`
	Holdings   int `json:"holdings"`
}

type portfolioRequest struct {
	Name string `json:"name"`
}

// priceFunc returns live prices for the holdings when enabled, otherwise none.
func (s *Server) priceFunc(ctx context.Context, holdings []models.Holding) valuation.PriceFunc {
	if !s.cfg.Valuation.LivePrices || s.prices == nil || len(holdings) == 0 {
		return valuation.NoPrices
	}
	return valuation.FromMap(s.prices.Snapshot(ctx, holdings))
}

func (s *Server) withStats(ctx context.Context, p models.Portfolio) portfolioResponse {
	sum := s.valuation.Valuate(p.Holdings, s.priceFunc(ctx, p.Holdings))
	return portfolioResponse{
		Portfolio:     p,
		TotalValue:    sum.CurrentValue,
		InvestedValue: sum.InvestedValue,
		PnL:           sum.PnL,
		PnLPercent:    sum.PnLPercent,
	}
}

// ownedPortfolio loads a portfolio and checks it belongs to the caller.
func (s *Server) ownedPortfolio(c *gin.Context, id string) (*models.Portfolio, error) {
	p, err := s.store.GetPortfolio(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if p.UserID != currentUserID(c) {
		return nil, errForbidden
	}
	return p, nil
}

func parsePortfolioName(c *gin.Context) (string, error) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", invalid("malformed body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", invalid("name is required")
	}
	if utf8.RuneCountInString(name) > maxPortfolioName {
		return "", invalid("name must be at most %d characters", maxPortfolioName)
	}
	return name, nil
}

func (s *Server) listPortfolios(c *gin.Context) {
	ctx := c.Request.Context()
	portfolios, err := s.store.ListPortfolios(ctx, currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]portfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, s.withStats(ctx, p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) portfolioSummary(c *gin.Context) {
	ctx := c.Request.Context()
	portfolios, err := s.store.ListPortfolios(ctx, currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var all []models.Holding
	for _, p := range portfolios {
		all = append(all, p.Holdings...)
	}
	priceOf := s.priceFunc(ctx, all)

	summaries := make([]valuation.Summary, 0, len(portfolios))
	for _, p := range portfolios {
		summaries = append(summaries, s.valuation.Valuate(p.Holdings, priceOf))
	}
	c.JSON(http.StatusOK, summaryResponse{
		Summary:    valuation.Aggregate(summaries...),
		Portfolios: len(portfolios),
		Holdings:   len(all),
	})
}

func (s *Server) createPortfolio(c *gin.Context) {
	name, err := parsePortfolioName(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	p := models.Portfolio{UserID: currentUserID(c), Name: name}
	if err := s.store.CreatePortfolio(c.Request.Context(), &p); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.withStats(c.Request.Context(), p))
}

func (s *Server) getPortfolio(c *gin.Context) {
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.withStats(c.Request.Context(), *p))
}

func (s *Server) renamePortfolio(c *gin.Context) {
	name, err := parsePortfolioName(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.RenamePortfolio(c.Request.Context(), p.ID, name); err != nil {
		s.respondError(c, err)
		return
	}
	p.Name = name
	c.JSON(http.StatusOK, s.withStats(c.Request.Context(), *p))
}

func (s *Server) deletePortfolio(c *gin.Context) {
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeletePortfolio(c.Request.Context(), p.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "portfolio deleted"})
}
