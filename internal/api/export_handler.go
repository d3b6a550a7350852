package api

import (
	"bytes"
	"fmt"
	"net/http"

	"findash/internal/models"
	"findash/internal/report"

	"github.com/gin-gonic/gin"
)

const csvContentType = "text/csv; charset=utf-8"

func (s *Server) sendCSV(c *gin.Context, filename string, body *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, csvContentType, body.Bytes())
}

func (s *Server) exportPortfolio(c *gin.Context) {
	p, err := s.ownedPortfolio(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	now := s.now()
	pv := report.Build(s.valuation, []models.Portfolio{*p}, s.priceFunc(ctx, p.Holdings))[0]

	var buf bytes.Buffer
	if err := report.WritePortfolio(&buf, pv, now); err != nil {
		s.respondError(c, err)
		return
	}
	s.sendCSV(c, report.PortfolioFilename(p.Name, now), &buf)
}

func (s *Server) exportPortfolios(c *gin.Context) {
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
	now := s.now()
	pvs := report.Build(s.valuation, portfolios, s.priceFunc(ctx, all))

	var buf bytes.Buffer
	if err := report.WriteAll(&buf, pvs, now); err != nil {
		s.respondError(c, err)
		return
	}
	s.sendCSV(c, report.AllFilename(now), &buf)
}
