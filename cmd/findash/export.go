package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"findash/internal/auth"
	"findash/internal/models"
	"findash/internal/report"
	"findash/internal/valuation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		email       string
		portfolioID string
		out         string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV report of a user's portfolios",
		Example: `  findash export --user ana@example.com
  findash export --user ana@example.com --portfolio 6f1c... --out core.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			return a.export(ctx, email, portfolioID, out)
		},
	}
	cmd.Flags().StringVar(&email, "user", "", "email of the portfolio owner")
	cmd.Flags().StringVar(&portfolioID, "portfolio", "", "export a single portfolio by id")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: the download filename in the current directory, - for stdout)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) export(ctx context.Context, email, portfolioID, out string) error {
	user, err := a.store.FindUserByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find user %s: %w", email, err)
	}
	portfolios, err := a.store.ListPortfolios(ctx, user.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	var (
		filename string
		write    func(io.Writer, []report.PortfolioValuation) error
	)
	if portfolioID != "" {
		var found *models.Portfolio
		for i := range portfolios {
			if portfolios[i].ID == portfolioID {
				found = &portfolios[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("portfolio %s not found for %s", portfolioID, user.Email)
		}
		portfolios = []models.Portfolio{*found}
		filename = report.PortfolioFilename(found.Name, now)
		write = func(w io.Writer, pvs []report.PortfolioValuation) error {
			return report.WritePortfolio(w, pvs[0], now)
		}
	} else {
		filename = report.AllFilename(now)
		write = func(w io.Writer, pvs []report.PortfolioValuation) error {
			return report.WriteAll(w, pvs, now)
		}
	}

	var priceOf valuation.PriceFunc = valuation.NoPrices
	if a.cfg.Valuation.LivePrices {
		var holdings []models.Holding
		for _, p := range portfolios {
			holdings = append(holdings, p.Holdings...)
		}
		priceOf = valuation.FromMap(a.prices.Snapshot(ctx, holdings))
	}
	pvs := report.Build(a.engine, portfolios, priceOf)

	if out == "-" {
		return write(os.Stdout, pvs)
	}
	if out == "" {
		out = filename
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := write(f, pvs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Info("Report written", zap.String("file", out), zap.Int("portfolios", len(pvs)))
	return nil
}
