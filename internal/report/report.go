// Package report runs the fixed set of aggregate queries over the warehouse.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/couchcryptid/climate-warehouse-etl/internal/observability"
)

// ErrUnknownReport is returned by Run for a name that is not a known report.
var ErrUnknownReport = errors.New("unknown report")

// Value is one result cell. Null is set when the database returned NULL.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Null   bool
}

// String formats the cell for display.
func (v Value) String() string {
	switch {
	case v.Null:
		return ""
	case v.Kind == Text:
		return v.Text
	default:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
}

// Result holds the rows of one executed query.
type Result struct {
	Query   Query
	Columns []ColumnSpec
	Rows    [][]Value
}

// Runner executes reports against a warehouse.
type Runner struct {
	db      *gorm.DB
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRunner creates a report runner.
func NewRunner(db *gorm.DB, metrics *observability.Metrics, logger *slog.Logger) *Runner {
	return &Runner{db: db, metrics: metrics, logger: logger}
}

// Run executes the named report.
func (r *Runner) Run(ctx context.Context, name string) (Result, error) {
	q, ok := Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}
	res, err := r.run(ctx, q)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.metrics.ReportQueries.WithLabelValues(q.Name, outcome).Inc()
	if err != nil {
		return Result{}, fmt.Errorf("report %s: %w", q.Name, err)
	}
	r.logger.Debug("report executed", "report", q.Name, "rows", len(res.Rows))
	return res, nil
}

// RunAll executes every report in canonical order and stops at the first error.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(queries))
	for _, name := range Names() {
		res, err := r.Run(ctx, name)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) run(ctx context.Context, q Query) (Result, error) {
	rows, err := r.db.WithContext(ctx).Raw(q.SQL).Rows()
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	res := Result{Query: q, Columns: q.Columns}
	for rows.Next() {
		texts := make([]sql.NullString, len(q.Columns))
		nums := make([]sql.NullFloat64, len(q.Columns))
		dest := make([]any, len(q.Columns))
		for i, c := range q.Columns {
			if c.Kind == Text {
				dest[i] = &texts[i]
			} else {
				dest[i] = &nums[i]
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, fmt.Errorf("scan: %w", err)
		}

		row := make([]Value, len(q.Columns))
		for i, c := range q.Columns {
			if c.Kind == Text {
				row[i] = Value{Kind: Text, Text: texts[i].String, Null: !texts[i].Valid}
			} else {
				row[i] = Value{Kind: Number, Number: nums[i].Float64, Null: !nums[i].Valid}
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}
