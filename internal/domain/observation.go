package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultUnknownEventType is the label stored for rows with no Extreme Event Type.
const DefaultUnknownEventType = "Desconocido"

// ErrMissingLabel is returned by Validate when a categorical column is blank.
var ErrMissingLabel = errors.New("missing categorical value")

// Observation is one CSV row after parsing. Numeric fields hold NaN when the
// source cell was empty.
type Observation struct {
	Row int // 1-based data row number in the source file

	Year                int
	TemperatureCategory string
	CO2Category         string
	SeaLevelCategory    string
	ExtremeEventType    string
	Region              string
	Ecosystem           string
	DataSource          string

	GlobalAvgTemp      float64
	CO2Concentration   float64
	SeaLevelRise       float64
	ExtremeEventsCount float64
	EconomicLoss       float64
}

// Validate reports the first blank categorical column, if any.
func (o Observation) Validate() error {
	labels := []struct {
		column string
		value  string
	}{
		{ColTemperatureCategory, o.TemperatureCategory},
		{ColCO2Category, o.CO2Category},
		{ColSeaLevelCategory, o.SeaLevelCategory},
		{ColExtremeEventType, o.ExtremeEventType},
		{ColRegion, o.Region},
		{ColEcosystem, o.Ecosystem},
		{ColDataSource, o.DataSource},
	}
	for _, l := range labels {
		if strings.TrimSpace(l.value) == "" {
			return fmt.Errorf("row %d: %w: %q", o.Row, ErrMissingLabel, l.column)
		}
	}
	return nil
}

// Chunk is a bounded, ordered batch of observations read from the source.
type Chunk struct {
	Index        int
	Observations []Observation
}

// Len returns the number of observations in the chunk.
func (c Chunk) Len() int { return len(c.Observations) }

// CSV header names.
const (
	ColYear                = "Year"
	ColTemperatureCategory = "Temperature Category"
	ColCO2Category         = "CO2 Category"
	ColSeaLevelCategory    = "Sea Level Category"
	ColExtremeEventType    = "Extreme Event Type"
	ColRegion              = "Region"
	ColEcosystem           = "Ecosystem"
	ColDataSource          = "Data Source"
	ColGlobalAvgTemp       = "Global Average Temperature (°C)"
	ColCO2Concentration    = "CO2 Concentration_ppm"
	ColSeaLevelRise        = "Sea Level Rise_mm"
	ColExtremeEventsCount  = "Extreme Events Count"
	ColEconomicLoss        = "Economic Loss (billions)"
)

// ChunkSummary describes what a committed chunk did to the warehouse.
type ChunkSummary struct {
	RunID             uuid.UUID      `json:"run_id"`
	ChunkIndex        int            `json:"chunk_index"`
	RowsRead          int            `json:"rows_read"`
	RowsKept          int            `json:"rows_kept"`
	OutliersDropped   map[string]int `json:"outliers_dropped,omitempty"`
	EventsMerged      int            `json:"events_merged"`     // case A
	IndicatorsMerged  int            `json:"indicators_merged"` // case B
	BothInserted      int            `json:"both_inserted"`     // case C
	BothMerged        int            `json:"both_merged"`       // symmetric policy only
	DimensionsCreated int            `json:"dimensions_created"`
	DimensionsByTable map[string]int `json:"dimensions_by_table,omitempty"`
	CommittedAt       time.Time      `json:"committed_at"`
}

// Count records one row's merge outcome.
func (s *ChunkSummary) Count(c MergeCase) {
	switch c {
	case CaseEventsMatched:
		s.EventsMerged++
	case CaseIndicatorsMatched:
		s.IndicatorsMerged++
	case CaseNoMatch:
		s.BothInserted++
	case CaseBothMatched:
		s.BothMerged++
	}
}

// RunSummary accumulates chunk summaries over one load.
type RunSummary struct {
	RunID             uuid.UUID
	Chunks            int
	RowsRead          int
	RowsKept          int
	OutliersDropped   map[string]int
	EventsMerged      int
	IndicatorsMerged  int
	BothInserted      int
	BothMerged        int
	DimensionsCreated int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// NewRunSummary starts a summary stamped with the package clock.
func NewRunSummary(runID uuid.UUID) RunSummary {
	return RunSummary{
		RunID:           runID,
		OutliersDropped: make(map[string]int),
		StartedAt:       clock.Now(),
	}
}

// Add folds a committed chunk into the run totals.
func (r *RunSummary) Add(c ChunkSummary) {
	r.Chunks++
	r.RowsRead += c.RowsRead
	r.RowsKept += c.RowsKept
	for k, v := range c.OutliersDropped {
		r.OutliersDropped[k] += v
	}
	r.EventsMerged += c.EventsMerged
	r.IndicatorsMerged += c.IndicatorsMerged
	r.BothInserted += c.BothInserted
	r.BothMerged += c.BothMerged
	r.DimensionsCreated += c.DimensionsCreated
}

// Finish stamps the end time.
func (r *RunSummary) Finish() {
	r.FinishedAt = clock.Now()
}
