package alert

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"findash/internal/config"
	"findash/internal/models"
	"findash/internal/pricing"
	"findash/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned by RunOnce when another run of the same scanner is active.
var ErrRunInProgress = errors.New("alert scan already running")

// Store is the persistence the scanner needs.
type Store interface {
	FindActiveUntriggeredAlerts(ctx context.Context) ([]models.Alert, error)
	FindHoldingByID(ctx context.Context, id string) (*models.Holding, error)
	SetAlertTriggered(ctx context.Context, id string, at time.Time) (bool, error)
}

// PriceLookup returns the current price of a symbol.
type PriceLookup interface {
	GetPrice(ctx context.Context, symbol string, assetType models.AssetType) (pricing.Quote, error)
}

// Notifier is told about every alert this scanner actually flipped to triggered.
type Notifier interface {
	AlertTriggered(alert models.Alert, price decimal.Decimal)
}

// Report counts what one run did with each alert.
type Report struct {
	Checked   int `json:"checked"`
	Triggered int `json:"triggered"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type outcome int

const (
	outcomeChecked outcome = iota
	outcomeTriggered
	outcomeSkipped
	outcomeFailed
)

// Scanner periodically checks active alerts against live prices and marks the satisfied ones
// as triggered.
type Scanner struct {
	logger   *zap.Logger
	store    Store
	prices   PriceLookup
	notifier Notifier
	now      func() time.Time

	interval      time.Duration
	lookupTimeout time.Duration
	workers       int

	running atomic.Bool
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithNotifier sets who hears about triggered alerts.
func WithNotifier(n Notifier) Option {
	return func(s *Scanner) { s.notifier = n }
}

// WithClock replaces time.Now for the triggeredAt timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a scanner from the alerts config.
func NewScanner(logger *zap.Logger, cfg config.Alerts, st Store, prices PriceLookup, opts ...Option) *Scanner {
	s := &Scanner{
		logger:        logger.Named("alerts"),
		store:         st,
		prices:        prices,
		now:           time.Now,
		interval:      cfg.Interval,
		lookupTimeout: cfg.LookupTimeout,
		workers:       cfg.Workers,
	}
	if s.interval <= 0 {
		s.interval = 5 * time.Minute
	}
	if s.lookupTimeout <= 0 {
		s.lookupTimeout = 5 * time.Second
	}
	if s.workers < 1 {
		s.workers = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans once right away and then on every tick until ctx is cancelled.
// A tick that fires while the previous run is still going is dropped.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting alert scan loop", zap.Duration("interval", s.interval))
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping alert scan loop...")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scanner) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Warn("Previous scan still running, skipping tick")
			return
		}
		s.logger.Error("Alert scan failed", zap.Error(err))
	}
}

// RunOnce performs a single scan. Only failing to list the alerts is an error; everything
// that goes wrong with an individual alert is logged and counted in the report.
func (s *Scanner) RunOnce(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	alerts, err := s.store.FindActiveUntriggeredAlerts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("could not list active alerts: %w", err)
	}
	if len(alerts) == 0 {
		s.logger.Info("No active alerts to check")
		return Report{}, nil
	}
	s.logger.Info("Checking alerts", zap.Int("count", len(alerts)))

	outcomes := make([]outcome, len(alerts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range alerts {
		i := i
		g.Go(func() error {
			outcomes[i] = s.check(gctx, alerts[i])
			return nil
		})
	}
	_ = g.Wait()

	var r Report
	for _, o := range outcomes {
		switch o {
		case outcomeChecked:
			r.Checked++
		case outcomeTriggered:
			r.Checked++
			r.Triggered++
		case outcomeSkipped:
			r.Skipped++
		case outcomeFailed:
			r.Failed++
		}
	}

	s.logger.Info("Alert scan complete",
		zap.Int("checked", r.Checked),
		zap.Int("triggered", r.Triggered),
		zap.Int("skipped", r.Skipped),
		zap.Int("failed", r.Failed))
	return r, nil
}

// check handles one alert in isolation.
func (s *Scanner) check(ctx context.Context, a models.Alert) outcome {
	l := s.logger.With(zap.String("alert_id", a.ID), zap.String("symbol", a.Symbol))

	cond, err := ConditionOf(a)
	if err != nil {
		l.Warn("Skipping alert with invalid condition", zap.Error(err))
		return outcomeSkipped
	}

	holding, err := s.store.FindHoldingByID(ctx, a.HoldingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("Holding no longer exists, skipping alert", zap.String("holding_id", a.HoldingID))
			return outcomeSkipped
		}
		l.Error("Could not load holding", zap.Error(err))
		return outcomeFailed
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	q, err := s.prices.GetPrice(lookupCtx, holding.Symbol, holding.AssetType)
	cancel()
	if err != nil {
		l.Info("Price unavailable, will retry next scan", zap.Error(err))
		return outcomeSkipped
	}

	if !Evaluate(cond, q.Price) {
		l.Debug("Alert condition not met", zap.String("price", q.Price.String()))
		return outcomeChecked
	}

	at := s.now()
	flipped, err := s.store.SetAlertTriggered(ctx, a.ID, at)
	if err != nil {
		l.Error("Could not mark alert triggered", zap.Error(err))
		return outcomeFailed
	}
	if !flipped {
		l.Info("Alert was already triggered elsewhere")
		return outcomeChecked
	}

	l.Info("Alert triggered",
		zap.String("type", string(a.AlertType)),
		zap.String("price", q.Price.String()))
	if s.notifier != nil {
		a.Triggered = true
		a.TriggeredAt = &at
		s.notifier.AlertTriggered(a, q.Price)
	}
	return outcomeTriggered
}
