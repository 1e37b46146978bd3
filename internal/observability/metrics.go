package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for MintLedger.
type Metrics struct {
	// --- Fold loop ---
	EventsApplied  *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
	EventDuration  *prometheus.HistogramVec
	LastBlock      prometheus.Gauge
	Halted         prometheus.Gauge

	// --- Ingestion ---
	IngestReceived  *prometheus.CounterVec
	IngestParseErrs *prometheus.CounterVec
	IngestToApply   *prometheus.HistogramVec

	// --- Persistence ---
	PersistBatchDur    prometheus.Histogram
	PersistBatchSize   prometheus.Histogram
	PersistRowsWritten prometheus.Counter
	PersistErrors      *prometheus.CounterVec
	PersistLastBlock   prometheus.Gauge

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	applyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		EventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_events_applied_total",
			Help: "Events successfully folded into the view",
		}, []string{"event_type"}),

		EventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_events_rejected_total",
			Help: "Events rejected (duplicate, invariant)",
		}, []string{"event_type", "reason"}),

		EventDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mint_event_apply_duration_seconds",
			Help:    "Time to apply a single event",
			Buckets: applyBuckets,
		}, []string{"event_type"}),

		LastBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mint_last_applied_block",
			Help: "Block number of the last applied event",
		}),

		Halted: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mint_engine_halted",
			Help: "1 when the engine halted on an invariant violation",
		}),

		IngestReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_ingest_received_total",
			Help: "Raw messages received per subject",
		}, []string{"subject"}),

		IngestParseErrs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_ingest_parse_errors_total",
			Help: "Messages that failed to decode",
		}, []string{"subject"}),

		IngestToApply: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mint_ingest_to_apply_seconds",
			Help:    "NATS receive to fold complete",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"event_type"}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mint_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mint_persist_batch_size",
			Help:    "Events per flush batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mint_persist_rows_written_total",
			Help: "Row mutations written to Postgres",
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistLastBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mint_persist_last_block",
			Help: "Block number of the last persisted event",
		}),

		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mint_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mint_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),
	}
}
