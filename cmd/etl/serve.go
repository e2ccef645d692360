package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

const defaultServeAddr = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports, charts, health and metrics over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wh, err := openWarehouse(ctx)
	if err != nil {
		return err
	}

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = defaultServeAddr
	}
	srv := httpadapter.NewServer(addr, wh, report.NewRunner(wh.Gorm(), metrics, logger), logger)
	startServer(srv)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := shutdown(srv, wh); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
