// Package chart draws report results as ECharts pages.
package chart

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

const pageTitle = "Climate Warehouse Reports"

// Build turns one result into a chart of its query's kind.
func Build(res report.Result) (components.Charter, error) {
	need := map[report.ChartKind]int{
		report.ChartLine:          2,
		report.ChartHorizontalBar: 2,
		report.ChartBar:           2,
		report.ChartPie:           2,
		report.ChartScatter:       3,
		report.ChartMultiLine:     3,
	}
	if n, ok := need[res.Query.Chart]; !ok {
		return nil, fmt.Errorf("report %s: unsupported chart kind %d", res.Query.Name, res.Query.Chart)
	} else if len(res.Columns) < n {
		return nil, fmt.Errorf("report %s: chart needs %d columns, have %d", res.Query.Name, n, len(res.Columns))
	}

	switch res.Query.Chart {
	case report.ChartLine:
		return lineChart(res), nil
	case report.ChartHorizontalBar:
		return barChart(res, true), nil
	case report.ChartBar:
		return barChart(res, false), nil
	case report.ChartPie:
		return pieChart(res), nil
	case report.ChartScatter:
		return scatterChart(res), nil
	default:
		return multiLineChart(res), nil
	}
}

// RenderPage writes a single HTML page with one chart per result.
func RenderPage(w io.Writer, results []report.Result) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	for _, res := range results {
		c, err := Build(res)
		if err != nil {
			return err
		}
		page.AddCharts(c)
	}
	return page.Render(w)
}

// RenderFile writes the chart page to path.
func RenderFile(path string, results []report.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart page: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return RenderPage(f, results)
}

func globals(res report.Result, x, y string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: pageTitle,
			Width:     "1000px",
			Height:    "560px",
			ChartID:   res.Query.Name,
		}),
		charts.WithTitleOpts(opts.Title{Title: res.Query.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: x}),
		charts.WithYAxisOpts(opts.YAxis{Name: y}),
	}
}

func labels(res report.Result, col int) []string {
	out := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = row[col].String()
	}
	return out
}

func numbers(res report.Result, col int) []float64 {
	out := make([]float64, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = row[col].Number
	}
	return out
}

func lineChart(res report.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globals(res, res.Columns[0].Label, res.Columns[1].Label)...)

	data := make([]opts.LineData, 0, len(res.Rows))
	for _, v := range numbers(res, 1) {
		data = append(data, opts.LineData{Value: v})
	}
	line.SetXAxis(labels(res, 0)).AddSeries(res.Columns[1].Label, data)
	return line
}

func barChart(res report.Result, horizontal bool) *charts.Bar {
	bar := charts.NewBar()
	x, y := res.Columns[0].Label, res.Columns[1].Label
	if horizontal {
		x, y = y, x
	}
	bar.SetGlobalOptions(globals(res, x, y)...)

	cats := labels(res, 0)
	vals := numbers(res, 1)
	if horizontal {
		// Category axes grow upward; reverse so the first row sits on top.
		for i, j := 0, len(cats)-1; i < j; i, j = i+1, j-1 {
			cats[i], cats[j] = cats[j], cats[i]
			vals[i], vals[j] = vals[j], vals[i]
		}
	}

	data := make([]opts.BarData, 0, len(vals))
	for _, v := range vals {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(cats).AddSeries(res.Columns[1].Label, data)
	if horizontal {
		bar.XYReversal()
	}
	return bar
}

func pieChart(res report.Result) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: pageTitle,
			Width:     "1000px",
			Height:    "560px",
			ChartID:   res.Query.Name,
		}),
		charts.WithTitleOpts(opts.Title{Title: res.Query.Title}),
	)

	names := labels(res, 0)
	vals := numbers(res, 1)
	data := make([]opts.PieData, 0, len(vals))
	for i, v := range vals {
		data = append(data, opts.PieData{Name: names[i], Value: v})
	}
	pie.AddSeries(res.Columns[1].Label, data, charts.WithLabelOpts(opts.Label{Formatter: "{b}: {d}%"}))
	return pie
}

func scatterChart(res report.Result) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: pageTitle,
			Width:     "1000px",
			Height:    "560px",
			ChartID:   res.Query.Name,
		}),
		charts.WithTitleOpts(opts.Title{Title: res.Query.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: res.Columns[1].Label, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: res.Columns[2].Label, Type: "value"}),
	)

	xs, ys, years := numbers(res, 1), numbers(res, 2), labels(res, 0)
	data := make([]opts.ScatterData, 0, len(xs))
	for i := range xs {
		data = append(data, opts.ScatterData{Name: years[i], Value: []any{xs[i], ys[i]}})
	}
	sc.AddSeries(res.Query.Title, data)
	return sc
}

// multiLineChart pivots (x, series, value) rows into one line per series.
func multiLineChart(res report.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globals(res, res.Columns[0].Label, res.Columns[2].Label)...)

	xs := labels(res, 0)
	series := labels(res, 1)
	vals := numbers(res, 2)

	var axis []string
	seenX := make(map[string]bool)
	for _, x := range xs {
		if !seenX[x] {
			seenX[x] = true
			axis = append(axis, x)
		}
	}
	pos := make(map[string]int, len(axis))
	for i, x := range axis {
		pos[x] = i
	}

	bySeries := make(map[string][]opts.LineData)
	for i, s := range series {
		points, ok := bySeries[s]
		if !ok {
			points = make([]opts.LineData, len(axis))
			for j := range points {
				points[j] = opts.LineData{Value: "-"}
			}
		}
		points[pos[xs[i]]] = opts.LineData{Value: vals[i]}
		bySeries[s] = points
	}

	names := make([]string, 0, len(bySeries))
	for s := range bySeries {
		names = append(names, s)
	}
	sort.Strings(names)

	line.SetXAxis(axis)
	for _, s := range names {
		line.AddSeries(s, bySeries[s])
	}
	return line
}
