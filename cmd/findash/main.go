package main

import (
	"fmt"
	"os"

	"findash/internal/config"
	"findash/internal/database"
	"findash/internal/logger"
	"findash/internal/pricing"
	"findash/internal/store"
	"findash/internal/valuation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand needs. It is filled in before any command runs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  *store.Store
	prices *pricing.Lookup
	engine *valuation.Engine
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configDir string

	root := &cobra.Command{
		Use:          "findash",
		Short:        "Portfolio tracker with live valuation and price alerts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configDir)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory containing config.yml")

	root.AddCommand(newServeCmd(a), newScanCmd(a), newExportCmd(a))
	return root
}

func (a *app) init(configDir string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		return fmt.Errorf("could not load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}
	a.log = log
	log.Info("Configuration loaded")

	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	log.Info("Database connection successful and schema migrated.")

	a.store = store.New(db)
	a.prices = pricing.NewLookup(cfg.Pricing, log)
	a.engine = valuation.NewEngine(nil)
	return nil
}
