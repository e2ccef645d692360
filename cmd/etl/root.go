package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/warehouse"
	"github.com/couchcryptid/climate-warehouse-etl/internal/config"
	"github.com/couchcryptid/climate-warehouse-etl/internal/observability"
)

var (
	// Global flags (override environment when set)
	envFile      string
	flagDriver   string
	flagDSN      string
	flagLogLevel string

	cfg     *config.Config
	logger  = slog.Default()
	metrics *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:               "etl",
	Short:             "Climate CSV to star-schema warehouse ETL",
	Long:              `Loads the climate categorical CSV into a star-schema warehouse in fixed-size chunks, then reports, charts, and exports what was loaded.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "warehouse driver: sqlite, postgres or mysql (overrides DATABASE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "warehouse DSN (overrides DATABASE_DSN)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(loadCmd, reportCmd, exportCmd, serveCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil {
		// The default .env is optional; an explicit one is not.
		if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c

	f := cmd.Flags()
	if f.Changed("driver") {
		cfg.DatabaseDriver = flagDriver
	}
	if f.Changed("dsn") {
		cfg.DatabaseDSN = flagDSN
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	logger = observability.NewLogger(cfg)
	metrics = observability.NewMetrics()
	return nil
}

func openWarehouse(ctx context.Context) (*warehouse.Warehouse, error) {
	return warehouse.Open(ctx, warehouse.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		Options: warehouse.Options{
			Policy:    cfg.MergePolicy,
			CacheSize: cfg.DimensionCacheSize,
		},
	}, logger)
}

// shutdown stops the HTTP server (if any) within SHUTDOWN_TIMEOUT, then closes
// every closer in order, collecting all failures.
func shutdown(srv *httpadapter.Server, closers ...io.Closer) error {
	var result *multierror.Error

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// startServer runs srv in the background, logging anything other than a
// graceful close.
func startServer(srv *httpadapter.Server) {
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
}
