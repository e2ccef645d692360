package report

// ChartKind selects how a report is drawn.
type ChartKind int

const (
	ChartLine ChartKind = iota
	ChartHorizontalBar
	ChartBar
	ChartPie
	ChartScatter
	// ChartMultiLine draws one line per distinct value of the second column.
	ChartMultiLine
)

// Query is one fixed reporting query.
type Query struct {
	Name    string
	Title   string
	SQL     string
	Columns []ColumnSpec
	Chart   ChartKind
}

// ColumnSpec describes a result column in SELECT order.
type ColumnSpec struct {
	Name  string
	Label string
	Kind  Kind
}

// Kind is the type a column is scanned as.
type Kind int

const (
	Text Kind = iota
	Number
)

var queries = []Query{
	{
		Name:  "avg-temperature-by-year",
		Title: "Average Global Temperature by Year",
		SQL: `SELECT y.year, AVG(c.global_avg_temp) AS avg_temperature
FROM climate_indicators_fact c
JOIN year_dim y ON c.year_id = y.id
GROUP BY y.year
ORDER BY y.year`,
		Columns: []ColumnSpec{
			{"year", "Year", Number},
			{"avg_temperature", "Global Avg Temp (°C)", Number},
		},
		Chart: ChartLine,
	},
	{
		Name:  "economic-loss-by-event-type",
		Title: "Total Economic Loss by Extreme Event Type",
		SQL: `SELECT e.event_type, SUM(f.economic_loss) AS total_economic_loss
FROM extreme_events_fact f
JOIN extreme_event_type_dim e ON f.event_type_id = e.id
GROUP BY e.event_type
ORDER BY total_economic_loss DESC`,
		Columns: []ColumnSpec{
			{"event_type", "Extreme Event Type", Text},
			{"total_economic_loss", "Total Economic Loss (billions)", Number},
		},
		Chart: ChartHorizontalBar,
	},
	{
		// Ecosystem ids are joined against year ids: climate_indicators_fact
		// has no ecosystem key.
		Name:  "sea-level-by-ecosystem",
		Title: "Average Sea Level Rise by Ecosystem",
		SQL: `SELECT eco.ecosystem, AVG(f.sea_level_rise) AS avg_sea_level_rise
FROM climate_indicators_fact f
JOIN ecosystem_dim eco ON f.year_id = eco.id
GROUP BY eco.ecosystem
ORDER BY avg_sea_level_rise DESC`,
		Columns: []ColumnSpec{
			{"ecosystem", "Ecosystem", Text},
			{"avg_sea_level_rise", "Avg Sea Level Rise (mm)", Number},
		},
		Chart: ChartBar,
	},
	{
		Name:  "economic-loss-by-region",
		Title: "Economic Loss Distribution by Region",
		SQL: `SELECT r.region, SUM(f.economic_loss) AS total_economic_loss
FROM extreme_events_fact f
JOIN region_dim r ON f.region_id = r.id
GROUP BY r.region
ORDER BY total_economic_loss DESC`,
		Columns: []ColumnSpec{
			{"region", "Region", Text},
			{"total_economic_loss", "Total Economic Loss (billions)", Number},
		},
		Chart: ChartPie,
	},
	{
		Name:  "co2-vs-sea-level",
		Title: "CO2 Concentration vs Sea Level Rise",
		SQL: `SELECT y.year, AVG(f.co2_concentration) AS avg_co2_concentration,
       AVG(f.sea_level_rise) AS avg_sea_level_rise
FROM climate_indicators_fact f
JOIN year_dim y ON f.year_id = y.id
GROUP BY y.year
ORDER BY y.year`,
		Columns: []ColumnSpec{
			{"year", "Year", Number},
			{"avg_co2_concentration", "Avg CO2 Concentration (ppm)", Number},
			{"avg_sea_level_rise", "Avg Sea Level Rise (mm)", Number},
		},
		Chart: ChartScatter,
	},
	{
		// source_id 1 is whichever source the load met first.
		Name:  "event-frequency-by-year",
		Title: "Extreme Event Frequency by Type and Year",
		SQL: `SELECT y.year, e.event_type, COUNT(f.id) AS event_frequency
FROM extreme_events_fact f
JOIN extreme_event_type_dim e ON f.event_type_id = e.id
JOIN year_dim y ON f.year_id = y.id
WHERE f.source_id = 1
GROUP BY y.year, e.event_type
ORDER BY y.year, event_frequency DESC`,
		Columns: []ColumnSpec{
			{"year", "Year", Number},
			{"event_type", "Extreme Event Type", Text},
			{"event_frequency", "Event Frequency", Number},
		},
		Chart: ChartMultiLine,
	},
}

// Names returns the report names in their canonical order.
func Names() []string {
	names := make([]string, len(queries))
	for i, q := range queries {
		names[i] = q.Name
	}
	return names
}

// Lookup finds a query by name.
func Lookup(name string) (Query, bool) {
	for _, q := range queries {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}
