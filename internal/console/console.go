// Package console renders reports and load summaries for the terminal.
package console

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
	"github.com/couchcryptid/climate-warehouse-etl/internal/report"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			Padding(0, 1)

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)

	emptyStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true)
)

// Table renders one report result as a bordered table with its title above.
func Table(res report.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(res.Query.Title))
	b.WriteString("\n")

	if len(res.Rows) == 0 {
		b.WriteString(emptyStyle.Render("no rows"))
		b.WriteString("\n")
		return b.String()
	}

	headers := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		headers[i] = c.Label
	}
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatCell(v)
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(styleFor(res.Columns))

	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// headerRow is the row index lipgloss/table passes to StyleFunc for the
// header; data rows start at 1.
const headerRow = 0

// styleFor right-aligns number columns and highlights the header.
func styleFor(cols []report.ColumnSpec) func(row, col int) lipgloss.Style {
	return func(row, col int) lipgloss.Style {
		if row == headerRow {
			return headerStyle
		}
		if col < len(cols) && cols[col].Kind == report.Number {
			return numberStyle
		}
		return cellStyle
	}
}

// formatCell prints whole numbers without decimals and others with up to four.
func formatCell(v report.Value) string {
	if v.Null || v.Kind == report.Text {
		return v.String()
	}
	if v.Number == float64(int64(v.Number)) {
		return strconv.FormatInt(int64(v.Number), 10)
	}
	return strconv.FormatFloat(v.Number, 'f', 4, 64)
}

// WriteReports writes every result as a table, separated by blank lines.
func WriteReports(w io.Writer, results []report.Result) error {
	for i, res := range results {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Table(res)); err != nil {
			return err
		}
	}
	return nil
}

// RunSummary renders the totals of a finished load.
func RunSummary(s domain.RunSummary) string {
	rows := [][]string{
		{"run id", s.RunID.String()},
		{"chunks", strconv.Itoa(s.Chunks)},
		{"rows read", strconv.Itoa(s.RowsRead)},
		{"rows kept", strconv.Itoa(s.RowsKept)},
	}

	metrics := make([]string, 0, len(s.OutliersDropped))
	for m := range s.OutliersDropped {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	for _, m := range metrics {
		rows = append(rows, []string{"outliers: " + m, strconv.Itoa(s.OutliersDropped[m])})
	}

	rows = append(rows,
		[]string{"events merged", strconv.Itoa(s.EventsMerged)},
		[]string{"indicators merged", strconv.Itoa(s.IndicatorsMerged)},
		[]string{"both inserted", strconv.Itoa(s.BothInserted)},
		[]string{"both merged", strconv.Itoa(s.BothMerged)},
		[]string{"dimensions created", strconv.Itoa(s.DimensionsCreated)},
	)
	if !s.FinishedAt.IsZero() {
		rows = append(rows, []string{"duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 1 {
				return numberStyle
			}
			return cellStyle
		})

	return fmt.Sprintf("%s\n%s\n", titleStyle.Render("Load summary"), t.String())
}
