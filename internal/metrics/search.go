package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and dataset Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kiezconnect",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"topic", "scope"},
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kiezconnect",
			Name:      "search_results_returned",
			Help:      "Number of listings returned per search before paging",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"scope"},
	)

	DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kiezconnect",
			Name:      "dataset_rows",
			Help:      "Listings loaded into the in-memory snapshot",
		},
		[]string{"category"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(DatasetRows)
	searchMetricsRegistered = true
}
