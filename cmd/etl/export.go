package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/export"
)

var (
	flagOut   string
	flagBatch int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the fact tables to Parquet",
	Long:  `Writes both fact tables, with their dimension labels joined in, to climate_indicators.parquet and extreme_events.parquet.`,
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagOut, "out", "export", "output directory")
	exportCmd.Flags().IntVar(&flagBatch, "batch", 5000, "rows read from the warehouse per query")
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()

	wh, err := openWarehouse(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wh.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	res, err := export.NewExporter(wh, flagBatch, logger).Export(ctx, flagOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n%s\t%d rows\n",
		res.IndicatorsPath, res.IndicatorRows, res.EventsPath, res.EventRows)
	return nil
}
