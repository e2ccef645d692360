package warehouse

import (
	"context"
	"fmt"
)

// IndicatorRow is a climate_indicators_fact row with its dimension labels.
type IndicatorRow struct {
	ID                  int64
	Year                int
	TemperatureCategory string
	CO2Category         string `gorm:"column:co2_category"`
	SeaLevelCategory    string
	Source              string
	GlobalAvgTemp       float64
	CO2Concentration    float64 `gorm:"column:co2_concentration"`
	SeaLevelRise        float64
}

// EventRow is an extreme_events_fact row with its dimension labels.
type EventRow struct {
	ID                 int64
	Year               int
	EventType          string
	Region             string
	Ecosystem          string
	Source             string
	ExtremeEventsCount int64
	EconomicLoss       float64
}

const indicatorRowsQuery = `
SELECT f.id, y.year, t.category AS temperature_category, c.category AS co2_category,
       s.category AS sea_level_category, src.source,
       f.global_avg_temp, f.co2_concentration, f.sea_level_rise
FROM climate_indicators_fact f
JOIN year_dim y ON f.year_id = y.id
JOIN temperature_category_dim t ON f.temp_category_id = t.id
JOIN co2_category_dim c ON f.co2_category_id = c.id
JOIN sea_level_category_dim s ON f.sea_level_category_id = s.id
JOIN source_dim src ON f.source_id = src.id
WHERE f.id > ?
ORDER BY f.id
LIMIT ?`

const eventRowsQuery = `
SELECT f.id, y.year, e.event_type, r.region, eco.ecosystem, src.source,
       f.extreme_events_count, f.economic_loss
FROM extreme_events_fact f
JOIN year_dim y ON f.year_id = y.id
JOIN extreme_event_type_dim e ON f.event_type_id = e.id
JOIN region_dim r ON f.region_id = r.id
JOIN ecosystem_dim eco ON f.ecosystem_id = eco.id
JOIN source_dim src ON f.source_id = src.id
WHERE f.id > ?
ORDER BY f.id
LIMIT ?`

// StreamIndicatorRows calls fn with consecutive batches of at most batch rows,
// in id order.
func (w *Warehouse) StreamIndicatorRows(ctx context.Context, batch int, fn func([]IndicatorRow) error) error {
	return stream(ctx, w, indicatorRowsQuery, batch, func(r IndicatorRow) int64 { return r.ID }, fn)
}

// StreamEventRows calls fn with consecutive batches of at most batch rows, in
// id order.
func (w *Warehouse) StreamEventRows(ctx context.Context, batch int, fn func([]EventRow) error) error {
	return stream(ctx, w, eventRowsQuery, batch, func(r EventRow) int64 { return r.ID }, fn)
}

func stream[T any](ctx context.Context, w *Warehouse, query string, batch int, id func(T) int64, fn func([]T) error) error {
	if batch <= 0 {
		batch = 1000
	}
	var after int64
	for {
		var rows []T
		if err := w.db.WithContext(ctx).Raw(query, after, batch).Scan(&rows).Error; err != nil {
			return fmt.Errorf("stream rows after id %d: %w", after, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < batch {
			return nil
		}
		after = id(rows[len(rows)-1])
	}
}
