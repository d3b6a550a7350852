// Package api exposes portfolios, holdings, alerts, prices and exports over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"findash/internal/auth"
	"findash/internal/config"
	"findash/internal/models"
	"findash/internal/notify"
	"findash/internal/pricing"
	"findash/internal/store"
	"findash/internal/valuation"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Prices is the quote source used by the handlers.
type Prices interface {
	GetPrice(ctx context.Context, symbol string, assetType models.AssetType) (pricing.Quote, error)
	Snapshot(ctx context.Context, holdings []models.Holding) map[string]decimal.Decimal
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Store     *store.Store
	Auth      *auth.Service
	Prices    Prices
	Valuation *valuation.Engine
	Hub       *notify.Hub
}

// Server is the HTTP API.
type Server struct {
	cfg    config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server

	store     *store.Store
	auth      *auth.Service
	prices    Prices
	valuation *valuation.Engine
	hub       *notify.Hub
	limiter   *ipRateLimiter
	now       func() time.Time
}

// NewServer builds the router. Nothing listens until Start.
func NewServer(cfg config.Config, logger *zap.Logger, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		logger:    logger.Named("api-server"),
		store:     deps.Store,
		auth:      deps.Auth,
		prices:    deps.Prices,
		valuation: deps.Valuation,
		hub:       deps.Hub,
		limiter:   newIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		now:       time.Now,
	}
	if s.valuation == nil {
		s.valuation = valuation.NewEngine(nil)
	}

	s.router = gin.New()
	if err := s.router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		s.logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = s.router.SetTrustedProxies(nil)
	}
	s.router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.GET("/health", s.health)
	r.GET("/ws", s.websocket)

	api := r.Group("/api", s.rateLimit())

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	api.GET("/prices/:symbol", s.getPrice)

	private := api.Group("", s.requireAuth())

	portfolios := private.Group("/portfolio")
	portfolios.GET("", s.listPortfolios)
	portfolios.POST("", s.createPortfolio)
	portfolios.GET("/summary", s.portfolioSummary)
	portfolios.GET("/:id", s.getPortfolio)
	portfolios.PUT("/:id", s.renamePortfolio)
	portfolios.DELETE("/:id", s.deletePortfolio)

	holdings := private.Group("/holdings")
	holdings.GET("/:id", s.listHoldings)
	holdings.POST("/:id", s.createHolding)
	holdings.PUT("/:id", s.updateHolding)
	holdings.DELETE("/:id", s.deleteHolding)

	alerts := private.Group("/alerts")
	alerts.GET("", s.listAlerts)
	alerts.POST("", s.createAlert)
	alerts.GET("/holding/:holdingId", s.listHoldingAlerts)
	alerts.POST("/holding/:holdingId", s.createAlert)
	alerts.GET("/:id", s.getAlert)
	alerts.DELETE("/:id", s.deleteAlert)
	alerts.PATCH("/:id/toggle", s.toggleAlert)

	exports := private.Group("/export")
	exports.GET("/portfolio/:id", s.exportPortfolio)
	exports.GET("/portfolios", s.exportPortfolios)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.now().UTC()})
}

// websocket streams triggered alerts to the caller. Browsers cannot set headers on the
// upgrade request, so the access token may come as ?token=.
func (s *Server) websocket(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notifications disabled"})
		return
	}
	token := parseBearer(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	claims, err := s.auth.Tokens().ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	s.hub.Serve(c.Writer, c.Request, claims.UserID)
}
