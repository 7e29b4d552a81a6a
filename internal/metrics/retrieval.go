package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mentordex",
			Name:      "retrieval_requests_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"mode", "outcome"}, // mode: "profile" / "query" / "conditions", outcome: "ok" / "fallback" / "error"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mentordex",
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mentordex",
			Name:      "retrieval_candidates",
			Help:      "Candidate count observed at each pipeline stage",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 30, 50, 100},
		},
		[]string{"stage"}, // "raw" / "enriched" / "filtered" / "final"
	)

	RetrievalDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mentordex",
			Name:      "retrieval_dropped_total",
			Help:      "Candidates dropped due to failed detail fetches",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(RetrievalDroppedTotal)
	retrievalMetricsRegistered = true
}
