package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/warehouse"
)

type fakeSource struct {
	indicators []warehouse.IndicatorRow
	events     []warehouse.EventRow
	err        error
}

func (f *fakeSource) StreamIndicatorRows(_ context.Context, batch int, fn func([]warehouse.IndicatorRow) error) error {
	if f.err != nil {
		return f.err
	}
	for i := 0; i < len(f.indicators); i += batch {
		end := min(i+batch, len(f.indicators))
		if err := fn(f.indicators[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) StreamEventRows(_ context.Context, batch int, fn func([]warehouse.EventRow) error) error {
	for i := 0; i < len(f.events); i += batch {
		end := min(i+batch, len(f.events))
		if err := fn(f.events[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestExport_WritesBothFiles(t *testing.T) {
	src := &fakeSource{
		indicators: []warehouse.IndicatorRow{
			{ID: 1, Year: 2020, TemperatureCategory: "High", CO2Category: "Medium", SeaLevelCategory: "Low", Source: "NOAA", GlobalAvgTemp: 15.1, CO2Concentration: 412.3, SeaLevelRise: 3.4},
			{ID: 2, Year: 2021, TemperatureCategory: "Low", CO2Category: "High", SeaLevelCategory: "High", Source: "NASA", GlobalAvgTemp: 14.9, CO2Concentration: 415, SeaLevelRise: 3.9},
			{ID: 3, Year: 2022, TemperatureCategory: "High", CO2Category: "High", SeaLevelCategory: "Medium", Source: "NOAA", GlobalAvgTemp: 15.3, CO2Concentration: 418, SeaLevelRise: 4.1},
		},
		events: []warehouse.EventRow{
			{ID: 1, Year: 2020, EventType: "Flood", Region: "Europe", Ecosystem: "Forest", Source: "NOAA", ExtremeEventsCount: 15, EconomicLoss: 2.5},
		},
	}
	dir := filepath.Join(t.TempDir(), "out")

	res, err := NewExporter(src, 2, discard()).Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, res.IndicatorRows)
	assert.Equal(t, 1, res.EventRows)
	assert.Equal(t, filepath.Join(dir, IndicatorsFile), res.IndicatorsPath)

	ind, err := parquet.ReadFile[IndicatorRecord](res.IndicatorsPath)
	require.NoError(t, err)
	require.Len(t, ind, 3)
	assert.Equal(t, IndicatorRecord{
		ID: 2, Year: 2021, TemperatureCategory: "Low", CO2Category: "High", SeaLevelCategory: "High",
		Source: "NASA", GlobalAvgTemp: 14.9, CO2Concentration: 415, SeaLevelRise: 3.9,
	}, ind[1])

	ev, err := parquet.ReadFile[EventRecord](res.EventsPath)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, "Flood", ev[0].EventType)
	assert.Equal(t, int64(15), ev[0].ExtremeEventsCount)
}

func TestExport_EmptyWarehouse(t *testing.T) {
	res, err := NewExporter(&fakeSource{}, 0, discard()).Export(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, res.IndicatorRows)
	assert.Zero(t, res.EventRows)

	ind, err := parquet.ReadFile[IndicatorRecord](res.IndicatorsPath)
	require.NoError(t, err)
	assert.Empty(t, ind)
}

func TestExport_SourceError(t *testing.T) {
	errDB := errors.New("database is locked")
	_, err := NewExporter(&fakeSource{err: errDB}, 10, discard()).Export(context.Background(), t.TempDir())
	require.ErrorIs(t, err, errDB)
	assert.Contains(t, err.Error(), IndicatorsFile)
}
