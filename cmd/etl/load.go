package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-warehouse-etl/internal/console"
	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
	"github.com/couchcryptid/climate-warehouse-etl/internal/pipeline"
)

var (
	flagChunkSize   int
	flagMergePolicy string
	flagUnknown     string
)

var loadCmd = &cobra.Command{
	Use:   "load [csv]",
	Short: "Load a climate CSV into the warehouse",
	Long: `Reads the CSV in chunks, drops IQR outliers per chunk, resolves the eight
dimensions and merges every row into the two fact tables. Each chunk is
committed in its own transaction; the first failing chunk stops the load.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "rows per chunk (overrides CHUNK_SIZE)")
	loadCmd.Flags().StringVar(&flagMergePolicy, "merge-policy", "", "legacy or symmetric (overrides MERGE_POLICY)")
	loadCmd.Flags().StringVar(&flagUnknown, "unknown-event-type", "", "label for blank event types (overrides UNKNOWN_EVENT_TYPE)")
}

func runLoad(cmd *cobra.Command, args []string) (err error) {
	if len(args) == 1 {
		cfg.CSVPath = args[0]
	}
	if err := applyLoadFlags(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wh, err := openWarehouse(ctx)
	if err != nil {
		return err
	}
	closers := []io.Closer{wh}

	src, err := csvsource.Open(cfg.CSVPath, cfg.ChunkSize, logger)
	if err != nil {
		return multierror.Append(err, shutdown(nil, closers...)).ErrorOrNil()
	}
	closers = append([]io.Closer{src}, closers...)

	var notifier pipeline.ChunkNotifier
	if cfg.NotificationsEnabled() {
		n := kafka.NewNotifier(cfg, metrics, logger)
		notifier = n
		closers = append([]io.Closer{n}, closers...)
		logger.Info("load notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	transformer := pipeline.NewTransformer(cfg.UnknownEventType, cfg.OutlierMetrics, logger)
	p := pipeline.New(src, transformer, wh, notifier, logger, metrics)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, nil, logger)
		startServer(srv)
	}

	defer func() {
		if cerr := shutdown(srv, closers...); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	logger.Info("load starting",
		"csv", cfg.CSVPath,
		"driver", cfg.DatabaseDriver,
		"chunk_size", cfg.ChunkSize,
		"merge_policy", cfg.MergePolicy,
	)

	run, err := p.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), console.RunSummary(run))
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.CSVPath, err)
	}
	return nil
}

func applyLoadFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("chunk-size") {
		if flagChunkSize < 1 {
			return fmt.Errorf("--chunk-size must be positive, got %d", flagChunkSize)
		}
		cfg.ChunkSize = flagChunkSize
	}
	if f.Changed("merge-policy") {
		policy, err := domain.ParseMergePolicy(flagMergePolicy)
		if err != nil {
			return fmt.Errorf("--merge-policy: %w", err)
		}
		cfg.MergePolicy = policy
	}
	if f.Changed("unknown-event-type") {
		if flagUnknown == "" {
			return fmt.Errorf("--unknown-event-type must not be empty")
		}
		cfg.UnknownEventType = flagUnknown
	}
	return nil
}
