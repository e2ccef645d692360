package warehouse

import (
	"context"
	"fmt"
	"strings"
)

// Violation counts offending rows (or key groups) for one table/column pair.
type Violation struct {
	Table  string
	Column string
	Count  int64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s: %d", v.Table, v.Column, v.Count)
}

// IntegrityReport is the result of CheckIntegrity. Only non-zero violations
// are listed.
type IntegrityReport struct {
	RowCounts           map[string]int64
	OrphanedKeys        []Violation
	DuplicateDimensions []Violation
	// DuplicateFacts lists fact tables with more than one row per natural key.
	// The legacy merge policy can produce these in climate_indicators_fact.
	DuplicateFacts []Violation
}

type foreignKey struct {
	fact, column, dim string
}

var foreignKeys = []foreignKey{
	{"climate_indicators_fact", "year_id", "year_dim"},
	{"climate_indicators_fact", "temp_category_id", "temperature_category_dim"},
	{"climate_indicators_fact", "co2_category_id", "co2_category_dim"},
	{"climate_indicators_fact", "sea_level_category_id", "sea_level_category_dim"},
	{"climate_indicators_fact", "source_id", "source_dim"},
	{"extreme_events_fact", "year_id", "year_dim"},
	{"extreme_events_fact", "event_type_id", "extreme_event_type_dim"},
	{"extreme_events_fact", "region_id", "region_dim"},
	{"extreme_events_fact", "ecosystem_id", "ecosystem_dim"},
	{"extreme_events_fact", "source_id", "source_dim"},
}

var factNaturalKeys = map[string][]string{
	"climate_indicators_fact": {"year_id", "temp_category_id", "co2_category_id", "sea_level_category_id", "source_id"},
	"extreme_events_fact":     {"year_id", "event_type_id", "region_id", "ecosystem_id", "source_id"},
}

// FactTables lists the fact tables in a stable order.
var FactTables = []string{"climate_indicators_fact", "extreme_events_fact"}

// CheckIntegrity counts rows per table, orphaned foreign keys, and natural
// keys that occur more than once.
func (w *Warehouse) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	db := w.db.WithContext(ctx)
	rep := IntegrityReport{RowCounts: make(map[string]int64)}

	tables := make([]string, 0, len(dimensions)+len(FactTables))
	for _, d := range dimensions {
		tables = append(tables, d.table)
	}
	tables = append(tables, FactTables...)
	for _, t := range tables {
		var n int64
		if err := db.Table(t).Count(&n).Error; err != nil {
			return rep, fmt.Errorf("count %s: %w", t, err)
		}
		rep.RowCounts[t] = n
	}

	for _, fk := range foreignKeys {
		var n int64
		q := fmt.Sprintf(
			"SELECT COUNT(*) FROM %s f LEFT JOIN %s d ON f.%s = d.id WHERE d.id IS NULL",
			fk.fact, fk.dim, fk.column)
		if err := db.Raw(q).Scan(&n).Error; err != nil {
			return rep, fmt.Errorf("orphan check %s.%s: %w", fk.fact, fk.column, err)
		}
		if n > 0 {
			rep.OrphanedKeys = append(rep.OrphanedKeys, Violation{fk.fact, fk.column, n})
		}
	}

	for _, d := range dimensions {
		n, err := countDuplicateGroups(ctx, w, d.table, []string{d.column})
		if err != nil {
			return rep, err
		}
		if n > 0 {
			rep.DuplicateDimensions = append(rep.DuplicateDimensions, Violation{d.table, d.column, n})
		}
	}

	for _, t := range FactTables {
		cols := factNaturalKeys[t]
		n, err := countDuplicateGroups(ctx, w, t, cols)
		if err != nil {
			return rep, err
		}
		if n > 0 {
			rep.DuplicateFacts = append(rep.DuplicateFacts, Violation{t, strings.Join(cols, ","), n})
		}
	}
	return rep, nil
}

func countDuplicateGroups(ctx context.Context, w *Warehouse, table string, cols []string) (int64, error) {
	key := strings.Join(cols, ", ")
	q := fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) dup",
		key, table, key)
	var n int64
	if err := w.db.WithContext(ctx).Raw(q).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("duplicate check %s: %w", table, err)
	}
	return n, nil
}
