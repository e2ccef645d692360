package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

func regionResult(rows ...[]report.Value) report.Result {
	q, _ := report.Lookup("economic-loss-by-region")
	return report.Result{Query: q, Columns: q.Columns, Rows: rows}
}

func TestTable(t *testing.T) {
	out := Table(regionResult(
		[]report.Value{{Kind: report.Text, Text: "Europe"}, {Kind: report.Number, Number: 20.125}},
		[]report.Value{{Kind: report.Text, Text: "Asia"}, {Kind: report.Number, Number: 10}},
	))

	assert.Contains(t, out, "Economic Loss Distribution by Region")
	assert.Contains(t, out, "Region")
	assert.Contains(t, out, "Europe")
	assert.Contains(t, out, "20.1250")
	assert.Contains(t, out, "10")
}

func TestStyleFor(t *testing.T) {
	style := styleFor(regionResult().Columns)

	assert.True(t, style(headerRow, 0).GetBold(), "header is bold")
	assert.True(t, style(headerRow, 1).GetBold(), "number header is bold too")

	assert.False(t, style(1, 0).GetBold())
	assert.Equal(t, lipgloss.Left, style(1, 0).GetAlign())
	assert.Equal(t, lipgloss.Right, style(1, 1).GetAlign())
	assert.Equal(t, lipgloss.Right, style(2, 1).GetAlign())
}

func TestTable_Empty(t *testing.T) {
	out := Table(regionResult())
	assert.Contains(t, out, "no rows")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "2020", formatCell(report.Value{Kind: report.Number, Number: 2020}))
	assert.Equal(t, "3.1416", formatCell(report.Value{Kind: report.Number, Number: 3.14159}))
	assert.Equal(t, "", formatCell(report.Value{Kind: report.Number, Null: true}))
	assert.Equal(t, "Flood", formatCell(report.Value{Kind: report.Text, Text: "Flood"}))
}

func TestWriteReports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, []report.Result{regionResult(), regionResult()}))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("no rows")))
}

func TestRunSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := domain.RunSummary{
		RunID:           uuid.MustParse("6f1c2a8e-4b7d-4c1e-9a55-0c7f0e1d2b3a"),
		Chunks:          2,
		RowsRead:        20000,
		RowsKept:        19500,
		OutliersDropped: map[string]int{"economic_loss": 400, "sea_level_rise": 100},
		BothInserted:    19000,
		EventsMerged:    500,
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
	}

	out := RunSummary(s)
	assert.Contains(t, out, "6f1c2a8e-4b7d-4c1e-9a55-0c7f0e1d2b3a")
	assert.Contains(t, out, "outliers: economic_loss")
	assert.Contains(t, out, "19500")
	assert.Contains(t, out, "1.5s")
}
