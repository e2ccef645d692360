package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the load pipeline.
type Metrics struct {
	ChunksLoaded    prometheus.Counter
	ChunkFailures   prometheus.Counter
	RowsRead        prometheus.Counter
	RowsKept        prometheus.Counter
	PipelineRunning prometheus.Gauge

	OutliersDropped   *prometheus.CounterVec // labels: metric
	MergeOutcomes     *prometheus.CounterVec // labels: case={events_matched,indicators_matched,no_match,both_matched}
	DimensionsCreated *prometheus.CounterVec // labels: table

	ChunkSize             prometheus.Histogram
	ChunkLoadDuration     prometheus.Histogram
	NotificationsProduced *prometheus.CounterVec // labels: outcome={success,error}

	ReportQueries *prometheus.CounterVec // labels: report, outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ChunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_loaded_total",
			Help:      "Chunks committed to the warehouse.",
		}),
		ChunkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Chunks that failed and were rolled back.",
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "CSV rows read from the source.",
		}),
		RowsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_kept_total",
			Help:      "Rows that survived outlier filtering and were merged.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a load is in progress, 0 otherwise.",
		}),
		OutliersDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_dropped_total",
			Help:      "Rows dropped by the IQR filter, by metric.",
		}, []string{"metric"}),
		MergeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_outcomes_total",
			Help:      "Fact merge outcomes by case.",
		}, []string{"case"}),
		DimensionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dimensions_created_total",
			Help:      "Dimension rows inserted, by table.",
		}, []string{"table"}),
		ChunkSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_size_rows",
			Help:      "Rows per chunk read from the CSV.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		ChunkLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_load_duration_seconds",
			Help:      "Duration of a complete chunk transform-load-commit cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		NotificationsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Chunk summary notifications by outcome.",
		}, []string{"outcome"}),
		ReportQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_queries_total",
			Help:      "Report query executions by report and outcome.",
		}, []string{"report", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ChunksLoaded,
		m.ChunkFailures,
		m.RowsRead,
		m.RowsKept,
		m.PipelineRunning,
		m.OutliersDropped,
		m.MergeOutcomes,
		m.DimensionsCreated,
		m.ChunkSize,
		m.ChunkLoadDuration,
		m.NotificationsProduced,
		m.ReportQueries,
	}
}
