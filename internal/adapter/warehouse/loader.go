package warehouse

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

// LoadChunk resolves dimensions and merges every observation of chunk into the
// facts inside one transaction. On error nothing from the chunk is kept.
func (w *Warehouse) LoadChunk(ctx context.Context, chunk domain.Chunk) (domain.ChunkSummary, error) {
	summary := domain.ChunkSummary{
		ChunkIndex: chunk.Index,
		RowsKept:   chunk.Len(),
	}

	w.resolver.begin()
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range chunk.Observations {
			c, err := w.mergeObservation(tx, o)
			if err != nil {
				return fmt.Errorf("row %d: %w", o.Row, err)
			}
			summary.Count(c)
		}
		return nil
	})
	if err != nil {
		w.resolver.rollback()
		return domain.ChunkSummary{}, fmt.Errorf("load chunk %d: %w", chunk.Index, err)
	}

	created := w.resolver.created
	w.resolver.commit()
	for _, n := range created {
		summary.DimensionsCreated += n
	}
	summary.DimensionsByTable = created
	summary.CommittedAt = domain.Now()

	w.logger.Debug("chunk committed",
		"chunk", chunk.Index,
		"rows", chunk.Len(),
		"events_merged", summary.EventsMerged,
		"indicators_merged", summary.IndicatorsMerged,
		"both_inserted", summary.BothInserted,
		"both_merged", summary.BothMerged,
		"dimensions_created", summary.DimensionsCreated,
	)
	return summary, nil
}

func (w *Warehouse) resolveKeys(tx *gorm.DB, o domain.Observation) (keys, error) {
	var k keys
	steps := []struct {
		dim   dimension
		value any
		dst   *int64
	}{
		{dimYear, o.Year, &k.Year},
		{dimTemperatureCategory, o.TemperatureCategory, &k.TempCategory},
		{dimCO2Category, o.CO2Category, &k.CO2Category},
		{dimSeaLevelCategory, o.SeaLevelCategory, &k.SeaLevelCategory},
		{dimExtremeEventType, o.ExtremeEventType, &k.EventType},
		{dimRegion, o.Region, &k.Region},
		{dimEcosystem, o.Ecosystem, &k.Ecosystem},
		{dimSource, o.DataSource, &k.Source},
	}
	for _, s := range steps {
		id, err := w.resolver.resolveOrCreate(tx, s.dim, s.value)
		if err != nil {
			return keys{}, err
		}
		*s.dst = id
	}
	return k, nil
}

// mergeObservation folds o into the facts and reports which path it took.
func (w *Warehouse) mergeObservation(tx *gorm.DB, o domain.Observation) (domain.MergeCase, error) {
	k, err := w.resolveKeys(tx, o)
	if err != nil {
		return 0, err
	}

	var events ExtremeEventsFact
	eventsFound, err := findFact(tx, k.eventsNaturalKey(), &events)
	if err != nil {
		return 0, err
	}
	var indicators ClimateIndicatorsFact
	indicatorsFound, err := findFact(tx, k.indicatorsNaturalKey(), &indicators)
	if err != nil {
		return 0, err
	}

	c := domain.DecideMergeCase(eventsFound, indicatorsFound, w.opts.Policy)
	switch c {
	case domain.CaseEventsMatched:
		if err := averageEvents(tx, events, o); err != nil {
			return 0, err
		}
		err = tx.Create(newIndicators(k, o)).Error
	case domain.CaseIndicatorsMatched:
		if err := averageIndicators(tx, indicators, o); err != nil {
			return 0, err
		}
		err = tx.Create(newEvents(k, o)).Error
	case domain.CaseBothMatched:
		if err := averageEvents(tx, events, o); err != nil {
			return 0, err
		}
		err = averageIndicators(tx, indicators, o)
	default:
		if err := tx.Create(newEvents(k, o)).Error; err != nil {
			return 0, fmt.Errorf("insert extreme events fact: %w", err)
		}
		err = tx.Create(newIndicators(k, o)).Error
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c, err)
	}
	return c, nil
}

// findFact loads the lowest-id fact matching naturalKey into dst.
func findFact(tx *gorm.DB, naturalKey map[string]any, dst any) (bool, error) {
	err := tx.Where(naturalKey).Order("id").Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup fact: %w", err)
	}
	return true, nil
}

func averageEvents(tx *gorm.DB, f ExtremeEventsFact, o domain.Observation) error {
	return tx.Model(&ExtremeEventsFact{}).Where("id = ?", f.ID).Updates(map[string]any{
		"extreme_events_count": domain.AverageCount(f.ExtremeEventsCount, eventCount(o)),
		"economic_loss":        domain.AverageFloat(f.EconomicLoss, o.EconomicLoss),
	}).Error
}

func averageIndicators(tx *gorm.DB, f ClimateIndicatorsFact, o domain.Observation) error {
	return tx.Model(&ClimateIndicatorsFact{}).Where("id = ?", f.ID).Updates(map[string]any{
		"global_avg_temp":   domain.AverageFloat(f.GlobalAvgTemp, o.GlobalAvgTemp),
		"co2_concentration": domain.AverageFloat(f.CO2Concentration, o.CO2Concentration),
		"sea_level_rise":    domain.AverageFloat(f.SeaLevelRise, o.SeaLevelRise),
	}).Error
}

func newEvents(k keys, o domain.Observation) *ExtremeEventsFact {
	return &ExtremeEventsFact{
		YearID:             k.Year,
		EventTypeID:        k.EventType,
		RegionID:           k.Region,
		EcosystemID:        k.Ecosystem,
		SourceID:           k.Source,
		ExtremeEventsCount: eventCount(o),
		EconomicLoss:       o.EconomicLoss,
	}
}

func newIndicators(k keys, o domain.Observation) *ClimateIndicatorsFact {
	return &ClimateIndicatorsFact{
		YearID:             k.Year,
		TempCategoryID:     k.TempCategory,
		CO2CategoryID:      k.CO2Category,
		SeaLevelCategoryID: k.SeaLevelCategory,
		SourceID:           k.Source,
		GlobalAvgTemp:      o.GlobalAvgTemp,
		CO2Concentration:   o.CO2Concentration,
		SeaLevelRise:       o.SeaLevelRise,
	}
}

func eventCount(o domain.Observation) int64 {
	return int64(math.RoundToEven(o.ExtremeEventsCount))
}
