package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-warehouse-etl/internal/chart"
	"github.com/couchcryptid/climate-warehouse-etl/internal/console"
	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

var flagHTML string

var reportCmd = &cobra.Command{
	Use:   "report [name...]",
	Short: "Print warehouse reports as tables",
	Long: fmt.Sprintf(`Runs the named reports (all of them when none are given) and prints each
as a table. With --html the charts are also written to one HTML page.

Reports: %v`, report.Names()),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagHTML, "html", "", "also write the charts to this HTML file")
}

func runReport(cmd *cobra.Command, args []string) (err error) {
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

	runner := report.NewRunner(wh.Gorm(), metrics, logger)

	var results []report.Result
	if len(args) == 0 {
		results, err = runner.RunAll(ctx)
		if err != nil {
			return err
		}
	} else {
		for _, name := range args {
			res, err := runner.Run(ctx, name)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
	}

	if err := console.WriteReports(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if flagHTML != "" {
		if err := chart.RenderFile(flagHTML, results); err != nil {
			return fmt.Errorf("write charts: %w", err)
		}
		logger.Info("charts written", "path", flagHTML, "charts", len(results))
	}
	return nil
}
