package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// iqrFactor scales the interquartile range into the keep window.
const iqrFactor = 1.5

// Metric is a numeric column subject to outlier filtering.
type Metric struct {
	Name   string // stable identifier used in config, logs, and metrics
	Column string // CSV header
	Value  func(Observation) float64
}

var (
	MetricEconomicLoss = Metric{
		Name: "economic_loss", Column: ColEconomicLoss,
		Value: func(o Observation) float64 { return o.EconomicLoss },
	}
	MetricExtremeEventsCount = Metric{
		Name: "extreme_events_count", Column: ColExtremeEventsCount,
		Value: func(o Observation) float64 { return o.ExtremeEventsCount },
	}
	MetricGlobalAvgTemp = Metric{
		Name: "global_avg_temp", Column: ColGlobalAvgTemp,
		Value: func(o Observation) float64 { return o.GlobalAvgTemp },
	}
	MetricCO2Concentration = Metric{
		Name: "co2_concentration", Column: ColCO2Concentration,
		Value: func(o Observation) float64 { return o.CO2Concentration },
	}
	MetricSeaLevelRise = Metric{
		Name: "sea_level_rise", Column: ColSeaLevelRise,
		Value: func(o Observation) float64 { return o.SeaLevelRise },
	}
)

// DefaultMetricOrder is the filter sequence used when none is configured.
var DefaultMetricOrder = []Metric{
	MetricEconomicLoss,
	MetricExtremeEventsCount,
	MetricGlobalAvgTemp,
	MetricCO2Concentration,
	MetricSeaLevelRise,
}

// ParseMetricOrder resolves a comma-separated list of metric names.
func ParseMetricOrder(s string) ([]Metric, error) {
	byName := make(map[string]Metric, len(DefaultMetricOrder))
	for _, m := range DefaultMetricOrder {
		byName[m.Name] = m
	}

	var order []Metric
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		m, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("metric %q listed twice", name)
		}
		seen[name] = true
		order = append(order, m)
	}
	return order, nil
}

// Quantile returns the q-th quantile (0 <= q <= 1) of values using linear
// interpolation between closest ranks. NaN values are ignored; the result is
// NaN when no finite values remain.
func Quantile(values []float64, q float64) float64 {
	cp := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			cp = append(cp, v)
		}
	}
	n := len(cp)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(cp)
	if q <= 0 {
		return cp[0]
	}
	if q >= 1 {
		return cp[n-1]
	}

	rank := q * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// Bounds is the inclusive keep window of one filter pass.
type Bounds struct {
	Lower float64
	Upper float64
}

// Contains reports whether v lies inside the window. NaN is never contained.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// IQRBounds computes [Q1-1.5*IQR, Q3+1.5*IQR] over values.
func IQRBounds(values []float64) Bounds {
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	return Bounds{Lower: q1 - iqrFactor*iqr, Upper: q3 + iqrFactor*iqr}
}

// FilterOutliers keeps the observations whose metric value lies inside the
// 1.5×IQR window of obs itself. Order is preserved.
func FilterOutliers(obs []Observation, m Metric) []Observation {
	if len(obs) == 0 {
		return obs
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = m.Value(o)
	}
	b := IQRBounds(values)

	kept := make([]Observation, 0, len(obs))
	for i, o := range obs {
		if b.Contains(values[i]) {
			kept = append(kept, o)
		}
	}
	return kept
}

// FilterChunk applies FilterOutliers once per metric, feeding each pass the
// survivors of the previous one. It returns the survivors and the number of
// rows each pass dropped, keyed by metric name.
func FilterChunk(obs []Observation, metrics ...Metric) ([]Observation, map[string]int) {
	dropped := make(map[string]int, len(metrics))
	for _, m := range metrics {
		before := len(obs)
		obs = FilterOutliers(obs, m)
		dropped[m.Name] += before - len(obs)
	}
	return obs, dropped
}
