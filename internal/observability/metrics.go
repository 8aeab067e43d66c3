package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InteractionsTotal counts inbound events by type and outcome.
	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adopt_interactions_total",
		Help: "Inbound filter events by type and result",
	}, []string{"event", "result"})

	// AggregationDuration tracks recomputation latency per aggregate.
	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adopt_aggregation_duration_seconds",
		Help:    "Aggregate recomputation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"aggregate"})

	// AggregateCacheHits counts session cache hits by aggregate.
	AggregateCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adopt_aggregate_cache_hits_total",
		Help: "Session aggregate cache hits",
	}, []string{"aggregate"})

	// EmptyResults counts queries answered with the no-data marker.
	EmptyResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adopt_empty_results_total",
		Help: "Queries that matched no eligible records",
	}, []string{"aggregate"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adopt_active_sessions",
		Help: "Sessions currently held in the registry",
	})

	DatasetRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adopt_dataset_records",
		Help: "Records in the active dataset",
	})

	DatasetDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adopt_dataset_dropped_rows",
		Help: "Source rows rejected while loading the active dataset",
	})

	DatasetGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adopt_dataset_generation",
		Help: "Generation number of the active dataset",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adopt_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// RecordDataset publishes the gauges describing the active dataset.
func RecordDataset(records, dropped int, generation uint64) {
	DatasetRecords.Set(float64(records))
	DatasetDropped.Set(float64(dropped))
	DatasetGeneration.Set(float64(generation))
}
