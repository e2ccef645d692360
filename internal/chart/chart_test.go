package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

func num(v float64) report.Value { return report.Value{Kind: report.Number, Number: v} }
func txt(s string) report.Value  { return report.Value{Kind: report.Text, Text: s} }

func result(t *testing.T, name string, rows ...[]report.Value) report.Result {
	t.Helper()
	q, ok := report.Lookup(name)
	require.True(t, ok, name)
	return report.Result{Query: q, Columns: q.Columns, Rows: rows}
}

func sampleResults(t *testing.T) []report.Result {
	return []report.Result{
		result(t, "avg-temperature-by-year",
			[]report.Value{num(2020), num(15.1)},
			[]report.Value{num(2021), num(15.3)}),
		result(t, "economic-loss-by-event-type",
			[]report.Value{txt("Flood"), num(30)},
			[]report.Value{txt("Drought"), num(12)}),
		result(t, "sea-level-by-ecosystem",
			[]report.Value{txt("Forest"), num(3.4)}),
		result(t, "economic-loss-by-region",
			[]report.Value{txt("Europe"), num(20)},
			[]report.Value{txt("Asia"), num(10)}),
		result(t, "co2-vs-sea-level",
			[]report.Value{num(2020), num(410), num(3.2)}),
		result(t, "event-frequency-by-year",
			[]report.Value{num(2020), txt("Flood"), num(3)},
			[]report.Value{num(2020), txt("Storm"), num(1)},
			[]report.Value{num(2021), txt("Flood"), num(2)}),
	}
}

func TestBuild_ChartTypes(t *testing.T) {
	results := sampleResults(t)

	want := []any{&charts.Line{}, &charts.Bar{}, &charts.Bar{}, &charts.Pie{}, &charts.Scatter{}, &charts.Line{}}
	for i, res := range results {
		c, err := Build(res)
		require.NoError(t, err, res.Query.Name)
		assert.IsType(t, want[i], c, res.Query.Name)
	}
}

func TestBuild_TooFewColumns(t *testing.T) {
	res := result(t, "co2-vs-sea-level")
	res.Columns = res.Columns[:2]
	_, err := Build(res)
	require.Error(t, err)
}

func TestMultiLineChart_OneSeriesPerEventType(t *testing.T) {
	res := sampleResults(t)[5]
	line := multiLineChart(res)
	require.Len(t, line.MultiSeries, 2)
	assert.Equal(t, "Flood", line.MultiSeries[0].Name)
	assert.Equal(t, "Storm", line.MultiSeries[1].Name)
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, sampleResults(t)))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Average Global Temperature by Year")
	assert.Contains(t, html, "Extreme Event Frequency by Type and Year")
	assert.Contains(t, html, "Europe")
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.html")
	require.NoError(t, RenderFile(path, sampleResults(t)[:1]))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Average Global Temperature by Year")
}
