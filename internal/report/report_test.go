package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/couchcryptid/climate-warehouse-etl/internal/observability"
)

func newMockRunner(t *testing.T) (*Runner, sqlmock.Sqlmock, *observability.Metrics) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	m := observability.NewMetricsForTesting()
	return NewRunner(db, m, slog.New(slog.NewTextHandler(io.Discard, nil))), mock, m
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		"avg-temperature-by-year",
		"economic-loss-by-event-type",
		"sea-level-by-ecosystem",
		"economic-loss-by-region",
		"co2-vs-sea-level",
		"event-frequency-by-year",
	}, Names())
}

func TestQueries_ColumnsMatchSelect(t *testing.T) {
	for _, q := range queries {
		for _, c := range q.Columns {
			assert.Contains(t, q.SQL, c.Name, "%s selects %s", q.Name, c.Name)
		}
	}
}

func TestQueries_PreservedSemantics(t *testing.T) {
	q, ok := Lookup("sea-level-by-ecosystem")
	require.True(t, ok)
	assert.Contains(t, q.SQL, "ON f.year_id = eco.id")

	q, ok = Lookup("event-frequency-by-year")
	require.True(t, ok)
	assert.Contains(t, q.SQL, "WHERE f.source_id = 1")
	assert.Equal(t, ChartMultiLine, q.Chart)
}

func TestRun_AvgTemperature(t *testing.T) {
	r, mock, m := newMockRunner(t)
	q, _ := Lookup("avg-temperature-by-year")

	mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).WillReturnRows(
		sqlmock.NewRows([]string{"year", "avg_temperature"}).
			AddRow(int64(2020), 15.25).
			AddRow(int64(2021), 15.5),
	)

	res, err := r.Run(context.Background(), q.Name)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2020", res.Rows[0][0].String())
	assert.InDelta(t, 15.25, res.Rows[0][1].Number, 1e-9)
	assert.Equal(t, "15.5", res.Rows[1][1].String())
	assert.Equal(t, q.Title, res.Query.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ReportQueries.WithLabelValues(q.Name, "success")), 0)
}

func TestRun_IssuesRawSQLWithoutArgs(t *testing.T) {
	r, mock, _ := newMockRunner(t)
	q, _ := Lookup("co2-vs-sea-level")

	mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).WithoutArgs().WillReturnRows(
		sqlmock.NewRows([]string{"year", "avg_co2_concentration", "avg_sea_level_rise"}).
			AddRow(int64(2020), 410.0, 3.25),
	)

	res, err := r.Run(context.Background(), q.Name)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "410", res.Rows[0][1].String())
	assert.Equal(t, "3.25", res.Rows[0][2].String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_NullAndTextCells(t *testing.T) {
	r, mock, _ := newMockRunner(t)
	q, _ := Lookup("economic-loss-by-event-type")

	mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).WillReturnRows(
		sqlmock.NewRows([]string{"event_type", "total_economic_loss"}).
			AddRow("Flood", 12.5).
			AddRow("", nil),
	)

	res, err := r.Run(context.Background(), q.Name)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, Value{Kind: Text, Text: "Flood"}, res.Rows[0][0])
	assert.Equal(t, "", res.Rows[1][0].String())
	assert.False(t, res.Rows[1][0].Null)
	assert.True(t, res.Rows[1][1].Null)
	assert.Equal(t, "", res.Rows[1][1].String())
}

func TestRun_UnknownReport(t *testing.T) {
	r, _, _ := newMockRunner(t)
	_, err := r.Run(context.Background(), "rainfall")
	require.ErrorIs(t, err, ErrUnknownReport)
	assert.Contains(t, err.Error(), "rainfall")
}

func TestRun_QueryError(t *testing.T) {
	r, mock, m := newMockRunner(t)
	q, _ := Lookup("economic-loss-by-region")

	mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).WillReturnError(errors.New("no such table: region_dim"))

	_, err := r.Run(context.Background(), q.Name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), q.Name)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ReportQueries.WithLabelValues(q.Name, "error")), 0)
}

func TestRunAll(t *testing.T) {
	r, mock, _ := newMockRunner(t)
	for _, q := range queries {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = c.Name
		}
		mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).WillReturnRows(sqlmock.NewRows(cols))
	}

	results, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, res := range results {
		assert.Equal(t, queries[i].Name, res.Query.Name)
		assert.Empty(t, res.Rows)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAll_StopsAtFirstError(t *testing.T) {
	r, mock, _ := newMockRunner(t)
	mock.ExpectQuery(regexp.QuoteMeta(queries[0].SQL)).WillReturnError(errors.New("database is locked"))

	_, err := r.RunAll(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
