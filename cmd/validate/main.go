// Command validate checks the integrity of a loaded climate warehouse: every
// fact foreign key must reference an existing dimension row, every dimension
// natural key must be unique, and extreme-events facts must be unique per
// natural key. Climate-indicators facts are only required to be unique under
// the symmetric merge policy; the legacy policy inserts one per events match.
//
// Usage:
//
//	go run ./cmd/validate -driver sqlite -dsn climate_data_warehouse.db -policy legacy
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/climate-warehouse-etl/internal/adapter/warehouse"
	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	driver := flag.String("driver", "sqlite", "warehouse driver: sqlite, postgres or mysql")
	dsn := flag.String("dsn", "climate_data_warehouse.db", "warehouse DSN")
	policy := flag.String("policy", string(domain.MergeLegacy), "merge policy the warehouse was loaded with")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall time limit")
	flag.Parse()

	p, err := domain.ParseMergePolicy(*policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*driver, *dsn, p, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(driver, dsn string, policy domain.MergePolicy, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Println("=== Climate Warehouse Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wh, err := warehouse.Open(ctx, warehouse.Config{Driver: driver, DSN: dsn}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open warehouse: %v\n", err)
		return 1
	}
	defer wh.Close()

	rep, err := wh.CheckIntegrity(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: integrity queries: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRowCounts(rep),
		validateForeignKeys(rep),
		validateDimensionUniqueness(rep),
		validateFactUniqueness(rep, policy),
	}

	// ── Report results ──
	allPassed := report(os.Stdout, rep, phases)
	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(w io.Writer, rep warehouse.IntegrityReport, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	tables := make([]string, 0, len(rep.RowCounts))
	for t := range rep.RowCounts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "  %-28s %d rows\n", t, rep.RowCounts[t])
	}

	for _, p := range phases {
		if len(p.errors)+len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, e := range p.warnings {
			fmt.Fprintf(w, "  [warn] %s\n", e)
		}
	}
	return allPassed
}

// ── Validation phases ──

func validateRowCounts(rep warehouse.IntegrityReport) *phase {
	p := &phase{name: "Phase 1: Fact tables populated"}
	for _, t := range warehouse.FactTables {
		if rep.RowCounts[t] == 0 {
			p.warnf("%s is empty", t)
		}
	}
	indicators, events := rep.RowCounts[warehouse.FactTables[0]], rep.RowCounts[warehouse.FactTables[1]]
	if (indicators == 0) != (events == 0) {
		p.errorf("one fact table is empty while the other is not")
	}
	return p
}

func validateForeignKeys(rep warehouse.IntegrityReport) *phase {
	p := &phase{name: "Phase 2: Foreign-key integrity"}
	for _, v := range rep.OrphanedKeys {
		p.errorf("%d rows of %s.%s reference a missing dimension row", v.Count, v.Table, v.Column)
	}
	return p
}

func validateDimensionUniqueness(rep warehouse.IntegrityReport) *phase {
	p := &phase{name: "Phase 3: Dimension natural-key uniqueness"}
	for _, v := range rep.DuplicateDimensions {
		p.errorf("%s has %d duplicated %s values", v.Table, v.Count, v.Column)
	}
	return p
}

func validateFactUniqueness(rep warehouse.IntegrityReport, policy domain.MergePolicy) *phase {
	p := &phase{name: "Phase 4: Fact natural-key uniqueness"}
	for _, v := range rep.DuplicateFacts {
		if v.Table == "climate_indicators_fact" && policy == domain.MergeLegacy {
			p.warnf("%s has %d repeated natural keys (expected under the legacy merge policy)", v.Table, v.Count)
			continue
		}
		p.errorf("%s has %d repeated natural keys (%s)", v.Table, v.Count, v.Column)
	}
	return p
}
