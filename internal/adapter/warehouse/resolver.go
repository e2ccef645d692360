package warehouse

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dimension describes one dimension table and how to build a row for it.
type dimension struct {
	table  string
	column string
	newRow func(value any) any
}

var (
	dimYear = dimension{"year_dim", "year", func(v any) any {
		return &YearDim{Year: v.(int)}
	}}
	dimTemperatureCategory = dimension{"temperature_category_dim", "category", func(v any) any {
		return &TemperatureCategoryDim{Category: v.(string)}
	}}
	dimCO2Category = dimension{"co2_category_dim", "category", func(v any) any {
		return &CO2CategoryDim{Category: v.(string)}
	}}
	dimSeaLevelCategory = dimension{"sea_level_category_dim", "category", func(v any) any {
		return &SeaLevelCategoryDim{Category: v.(string)}
	}}
	dimExtremeEventType = dimension{"extreme_event_type_dim", "event_type", func(v any) any {
		return &ExtremeEventTypeDim{EventType: v.(string)}
	}}
	dimRegion = dimension{"region_dim", "region", func(v any) any {
		return &RegionDim{Region: v.(string)}
	}}
	dimEcosystem = dimension{"ecosystem_dim", "ecosystem", func(v any) any {
		return &EcosystemDim{Ecosystem: v.(string)}
	}}
	dimSource = dimension{"source_dim", "source", func(v any) any {
		return &SourceDim{Source: v.(string)}
	}}
)

// dimensions lists every dimension table.
var dimensions = []dimension{
	dimYear,
	dimTemperatureCategory,
	dimCO2Category,
	dimSeaLevelCategory,
	dimExtremeEventType,
	dimRegion,
	dimEcosystem,
	dimSource,
}

// resolver maps natural keys to surrogate ids. Ids from committed chunks live
// in an LRU cache; ids seen during the open chunk stay in pending until commit
// so a rolled-back chunk never leaks ids into the cache.
type resolver struct {
	cache   *lru.Cache[string, int64]
	pending map[string]int64
	created map[string]int // table -> rows inserted in the open chunk
}

func newResolver(size int) (*resolver, error) {
	cache, err := lru.New[string, int64](size)
	if err != nil {
		return nil, fmt.Errorf("create dimension cache: %w", err)
	}
	return &resolver{cache: cache}, nil
}

func (r *resolver) begin() {
	r.pending = make(map[string]int64)
	r.created = make(map[string]int)
}

func (r *resolver) commit() {
	for k, id := range r.pending {
		r.cache.Add(k, id)
	}
	r.pending = nil
}

func (r *resolver) rollback() {
	r.pending = nil
	r.created = nil
}

// resolveOrCreate returns the id of the row in d whose natural key equals
// value, inserting it first if needed.
func (r *resolver) resolveOrCreate(tx *gorm.DB, d dimension, value any) (int64, error) {
	key := fmt.Sprintf("%s:%v", d.table, value)
	if id, ok := r.pending[key]; ok {
		return id, nil
	}
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	id, found, err := lookupDimension(tx, d, value)
	if err != nil {
		return 0, err
	}
	if !found {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: d.column}},
			DoNothing: true,
		}).Create(d.newRow(value))
		if res.Error != nil {
			return 0, fmt.Errorf("insert %s %v: %w", d.table, value, res.Error)
		}
		if res.RowsAffected > 0 && r.created != nil {
			r.created[d.table]++
		}

		id, found, err = lookupDimension(tx, d, value)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("%s %v: row missing after insert", d.table, value)
		}
	}

	if r.pending != nil {
		r.pending[key] = id
	} else {
		r.cache.Add(key, id)
	}
	return id, nil
}

func lookupDimension(tx *gorm.DB, d dimension, value any) (int64, bool, error) {
	var ids []int64
	err := tx.Table(d.table).
		Where(map[string]any{d.column: value}).
		Order("id").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, false, fmt.Errorf("select %s %v: %w", d.table, value, err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}
