package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/warehouse"
	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

func cleanReport() warehouse.IntegrityReport {
	return warehouse.IntegrityReport{RowCounts: map[string]int64{
		"climate_indicators_fact": 10,
		"extreme_events_fact":     8,
		"year_dim":                3,
	}}
}

func TestPhases_CleanWarehousePasses(t *testing.T) {
	rep := cleanReport()
	for _, p := range []*phase{
		validateRowCounts(rep),
		validateForeignKeys(rep),
		validateDimensionUniqueness(rep),
		validateFactUniqueness(rep, domain.MergeLegacy),
	} {
		assert.True(t, p.passed(), p.name)
		assert.Empty(t, p.warnings, p.name)
	}
}

func TestValidateForeignKeys_Orphans(t *testing.T) {
	rep := cleanReport()
	rep.OrphanedKeys = []warehouse.Violation{{Table: "extreme_events_fact", Column: "region_id", Count: 2}}

	p := validateForeignKeys(rep)
	assert.False(t, p.passed())
	assert.Contains(t, p.errors[0], "extreme_events_fact.region_id")
}

func TestValidateDimensionUniqueness(t *testing.T) {
	rep := cleanReport()
	rep.DuplicateDimensions = []warehouse.Violation{{Table: "region_dim", Column: "region", Count: 1}}
	assert.False(t, validateDimensionUniqueness(rep).passed())
}

func TestValidateFactUniqueness_DependsOnPolicy(t *testing.T) {
	rep := cleanReport()
	rep.DuplicateFacts = []warehouse.Violation{{Table: "climate_indicators_fact", Column: "year_id", Count: 4}}

	legacy := validateFactUniqueness(rep, domain.MergeLegacy)
	assert.True(t, legacy.passed())
	assert.Len(t, legacy.warnings, 1)

	symmetric := validateFactUniqueness(rep, domain.MergeSymmetric)
	assert.False(t, symmetric.passed())
}

func TestValidateFactUniqueness_EventsAlwaysFail(t *testing.T) {
	rep := cleanReport()
	rep.DuplicateFacts = []warehouse.Violation{{Table: "extreme_events_fact", Column: "year_id", Count: 1}}
	assert.False(t, validateFactUniqueness(rep, domain.MergeLegacy).passed())
}

func TestValidateRowCounts(t *testing.T) {
	empty := warehouse.IntegrityReport{RowCounts: map[string]int64{}}
	p := validateRowCounts(empty)
	assert.True(t, p.passed())
	assert.Len(t, p.warnings, 2)

	lopsided := cleanReport()
	lopsided.RowCounts["extreme_events_fact"] = 0
	assert.False(t, validateRowCounts(lopsided).passed())
}

func TestReport_PrintsDetails(t *testing.T) {
	rep := cleanReport()
	rep.OrphanedKeys = []warehouse.Violation{{Table: "climate_indicators_fact", Column: "source_id", Count: 3}}
	phases := []*phase{validateForeignKeys(rep)}

	var buf bytes.Buffer
	assert.False(t, report(&buf, rep, phases))
	out := buf.String()
	assert.Contains(t, out, "FAIL (1 errors)")
	assert.Contains(t, out, "climate_indicators_fact.source_id")
	assert.Contains(t, out, "year_dim")
}
