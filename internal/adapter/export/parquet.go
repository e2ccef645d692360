// Package export writes denormalized warehouse facts to Parquet files.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/warehouse"
)

const (
	IndicatorsFile = "climate_indicators.parquet"
	EventsFile     = "extreme_events.parquet"

	defaultBatch = 5000
)

// IndicatorRecord is one climate indicators fact as written to Parquet.
type IndicatorRecord struct {
	ID                  int64   `parquet:"id"`
	Year                int32   `parquet:"year"`
	TemperatureCategory string  `parquet:"temperature_category,dict,snappy"`
	CO2Category         string  `parquet:"co2_category,dict,snappy"`
	SeaLevelCategory    string  `parquet:"sea_level_category,dict,snappy"`
	Source              string  `parquet:"source,dict,snappy"`
	GlobalAvgTemp       float64 `parquet:"global_avg_temp"`
	CO2Concentration    float64 `parquet:"co2_concentration"`
	SeaLevelRise        float64 `parquet:"sea_level_rise"`
}

// EventRecord is one extreme events fact as written to Parquet.
type EventRecord struct {
	ID                 int64   `parquet:"id"`
	Year               int32   `parquet:"year"`
	EventType          string  `parquet:"event_type,dict,snappy"`
	Region             string  `parquet:"region,dict,snappy"`
	Ecosystem          string  `parquet:"ecosystem,dict,snappy"`
	Source             string  `parquet:"source,dict,snappy"`
	ExtremeEventsCount int64   `parquet:"extreme_events_count"`
	EconomicLoss       float64 `parquet:"economic_loss"`
}

// Source streams fact rows out of the warehouse.
type Source interface {
	StreamIndicatorRows(ctx context.Context, batch int, fn func([]warehouse.IndicatorRow) error) error
	StreamEventRows(ctx context.Context, batch int, fn func([]warehouse.EventRow) error) error
}

// Result reports what Export wrote.
type Result struct {
	IndicatorsPath string
	IndicatorRows  int
	EventsPath     string
	EventRows      int
}

// Exporter writes both fact tables into a directory.
type Exporter struct {
	src    Source
	batch  int
	logger *slog.Logger
}

// NewExporter creates an exporter reading batch rows at a time.
func NewExporter(src Source, batch int, logger *slog.Logger) *Exporter {
	if batch <= 0 {
		batch = defaultBatch
	}
	return &Exporter{src: src, batch: batch, logger: logger}
}

// Export writes IndicatorsFile and EventsFile into dir, creating it if needed.
func (e *Exporter) Export(ctx context.Context, dir string) (Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export dir: %w", err)
	}

	res := Result{
		IndicatorsPath: filepath.Join(dir, IndicatorsFile),
		EventsPath:     filepath.Join(dir, EventsFile),
	}

	n, err := writeFile(res.IndicatorsPath, func(write func([]IndicatorRecord) error) error {
		return e.src.StreamIndicatorRows(ctx, e.batch, func(rows []warehouse.IndicatorRow) error {
			recs := make([]IndicatorRecord, len(rows))
			for i, r := range rows {
				recs[i] = IndicatorRecord{
					ID:                  r.ID,
					Year:                int32(r.Year),
					TemperatureCategory: r.TemperatureCategory,
					CO2Category:         r.CO2Category,
					SeaLevelCategory:    r.SeaLevelCategory,
					Source:              r.Source,
					GlobalAvgTemp:       r.GlobalAvgTemp,
					CO2Concentration:    r.CO2Concentration,
					SeaLevelRise:        r.SeaLevelRise,
				}
			}
			return write(recs)
		})
	})
	if err != nil {
		return res, fmt.Errorf("export %s: %w", IndicatorsFile, err)
	}
	res.IndicatorRows = n

	n, err = writeFile(res.EventsPath, func(write func([]EventRecord) error) error {
		return e.src.StreamEventRows(ctx, e.batch, func(rows []warehouse.EventRow) error {
			recs := make([]EventRecord, len(rows))
			for i, r := range rows {
				recs[i] = EventRecord{
					ID:                 r.ID,
					Year:               int32(r.Year),
					EventType:          r.EventType,
					Region:             r.Region,
					Ecosystem:          r.Ecosystem,
					Source:             r.Source,
					ExtremeEventsCount: r.ExtremeEventsCount,
					EconomicLoss:       r.EconomicLoss,
				}
			}
			return write(recs)
		})
	})
	if err != nil {
		return res, fmt.Errorf("export %s: %w", EventsFile, err)
	}
	res.EventRows = n

	e.logger.Info("parquet export complete",
		"dir", dir,
		"indicator_rows", res.IndicatorRows,
		"event_rows", res.EventRows,
	)
	return res, nil
}

func writeFile[T any](path string, fill func(write func([]T) error) error) (rows int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := parquet.NewGenericWriter[T](f)
	write := func(recs []T) error {
		n, err := w.Write(recs)
		rows += n
		return err
	}
	if err := fill(write); err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return rows, nil
}
