package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"findash/internal/alert"
	"findash/internal/api"
	"findash/internal/auth"
	"findash/internal/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the alert scan job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	hub := notify.NewHub(a.log)
	authSvc := auth.NewService(a.log, a.store, auth.NewTokenIssuer(a.cfg.Auth))

	server := api.NewServer(a.cfg, a.log, api.Deps{
		Store:     a.store,
		Auth:      authSvc,
		Prices:    a.prices,
		Valuation: a.engine,
		Hub:       hub,
	})

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server.Start()

	var wg sync.WaitGroup
	if a.cfg.Alerts.Enabled {
		scanner := alert.NewScanner(a.log, a.cfg.Alerts, a.store, a.prices, alert.WithNotifier(hub))
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner.Run(ctx)
		}()
	} else {
		a.log.Info("Alert scan job disabled")
	}

	<-ctx.Done()
	a.log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := server.Stop(shutdownCtx); err != nil {
		a.log.Error("API server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	a.log.Info("Findash has been shut down.")
	return nil
}
