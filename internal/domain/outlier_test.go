package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsWithLoss(losses ...float64) []Observation {
	out := make([]Observation, len(losses))
	for i, v := range losses {
		out[i] = Observation{
			Row:                i + 1,
			EconomicLoss:       v,
			ExtremeEventsCount: 3,
			GlobalAvgTemp:      14.5,
			CO2Concentration:   410,
			SeaLevelRise:       3.2,
		}
	}
	return out
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"q1 interpolated", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"q3 interpolated", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"q1 exact rank", []float64{1, 2, 3, 4, 100}, 0.25, 2},
		{"q3 exact rank", []float64{1, 2, 3, 4, 100}, 0.75, 4},
		{"single value", []float64{7}, 0.75, 7},
		{"min", []float64{5, 9, 1}, 0, 1},
		{"max", []float64{5, 9, 1}, 1, 9},
		{"ignores NaN", []float64{1, math.NaN(), 2, 3}, 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.values, tt.q), 1e-9)
		})
	}
}

func TestQuantile_EmptyIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.True(t, math.IsNaN(Quantile([]float64{math.NaN()}, 0.5)))
}

func TestQuantile_DoesNotReorderInput(t *testing.T) {
	in := []float64{4, 1, 3}
	Quantile(in, 0.5)
	assert.Equal(t, []float64{4, 1, 3}, in)
}

func TestIQRBounds(t *testing.T) {
	b := IQRBounds([]float64{1, 2, 3, 4, 100})
	assert.InDelta(t, -1.0, b.Lower, 1e-9)
	assert.InDelta(t, 7.0, b.Upper, 1e-9)
	assert.True(t, b.Contains(-1))
	assert.True(t, b.Contains(7))
	assert.False(t, b.Contains(7.0001))
	assert.False(t, b.Contains(math.NaN()))
}

func TestFilterOutliers_RemovesExtremeValue(t *testing.T) {
	kept := FilterOutliers(obsWithLoss(1, 2, 3, 4, 100), MetricEconomicLoss)

	require.Len(t, kept, 4)
	for _, o := range kept {
		assert.NotEqual(t, 100.0, o.EconomicLoss)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, rows(kept))
}

func TestFilterOutliers_Empty(t *testing.T) {
	assert.Empty(t, FilterOutliers(nil, MetricEconomicLoss))
}

func TestFilterOutliers_ConstantColumnKeepsAll(t *testing.T) {
	kept := FilterOutliers(obsWithLoss(5, 5, 5), MetricEconomicLoss)
	assert.Len(t, kept, 3)
}

func TestFilterOutliers_DropsNaN(t *testing.T) {
	kept := FilterOutliers(obsWithLoss(1, math.NaN(), 2, 3), MetricEconomicLoss)
	assert.Equal(t, []int{1, 3, 4}, rows(kept))
}

func TestFilterChunk_CountsDropsPerMetric(t *testing.T) {
	obs := obsWithLoss(1, 2, 3, 4, 100)
	obs[1].SeaLevelRise = 900

	kept, dropped := FilterChunk(obs, DefaultMetricOrder...)

	assert.Equal(t, []int{1, 3, 4}, rows(kept))
	assert.Equal(t, 1, dropped[MetricEconomicLoss.Name])
	assert.Equal(t, 1, dropped[MetricSeaLevelRise.Name])
	assert.Equal(t, 0, dropped[MetricCO2Concentration.Name])
	assert.Len(t, dropped, len(DefaultMetricOrder))
}

func TestFilterChunk_PassesFeedEachOther(t *testing.T) {
	// Row 5 is an economic-loss outlier. Once it is gone the temperature
	// window narrows enough to reject row 4, which the full set would keep.
	obs := obsWithLoss(1, 2, 3, 4, 100)
	temps := []float64{10, 10.1, 10.2, 10.9, 20}
	for i := range obs {
		obs[i].GlobalAvgTemp = temps[i]
	}

	full := FilterOutliers(obs, MetricGlobalAvgTemp)
	assert.Equal(t, []int{1, 2, 3, 4}, rows(full))

	kept, dropped := FilterChunk(obs, MetricEconomicLoss, MetricGlobalAvgTemp)
	assert.Equal(t, []int{1, 2, 3}, rows(kept))
	assert.Equal(t, 1, dropped[MetricGlobalAvgTemp.Name])
}

func TestParseMetricOrder(t *testing.T) {
	order, err := ParseMetricOrder("sea_level_rise, economic_loss")
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, ColSeaLevelRise, order[0].Column)
	assert.Equal(t, ColEconomicLoss, order[1].Column)

	_, err = ParseMetricOrder("economic_loss,bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")

	_, err = ParseMetricOrder("economic_loss,economic_loss")
	require.Error(t, err)
}

func rows(obs []Observation) []int {
	out := make([]int, len(obs))
	for i, o := range obs {
		out[i] = o.Row
	}
	return out
}
