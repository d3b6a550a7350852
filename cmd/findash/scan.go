package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"findash/internal/alert"

	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one alert scan and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			scanner := alert.NewScanner(a.log, a.cfg.Alerts, a.store, a.prices)
			report, err := scanner.RunOnce(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
