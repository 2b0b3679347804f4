// Package observability exposes the service's Prometheus instruments.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	PipelineOutcomes  *prometheus.CounterVec
	LLMFailures       *prometheus.CounterVec
	PipelineLatency   prometheus.Histogram
	StoredImportance  prometheus.Histogram
	PurgedDuplicates  prometheus.Counter
	ContextInjections *prometheus.CounterVec
}

// NewMetrics registers all instruments under the namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		PipelineOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Memory pipeline outcomes by action.",
		}, []string{"action"}),
		LLMFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_failures_total",
			Help:      "Completion failures by stage (scoring, similarity, parse).",
		}, []string{"stage"}),
		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_latency_ms",
			Help:      "End-to-end pipeline latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		StoredImportance: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stored_importance",
			Help:      "Importance of stored memories.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		PurgedDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_duplicates_total",
			Help:      "Memories deleted by the duplicate sweep.",
		}),
		ContextInjections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_injections_total",
			Help:      "Context block builds by kind (memories, empty, disabled).",
		}, []string{"kind"}),
	}
}

// ObservePipeline records one pipeline run.
func (m *Metrics) ObservePipeline(action string, d time.Duration) {
	m.PipelineOutcomes.WithLabelValues(action).Inc()
	m.PipelineLatency.Observe(float64(d.Milliseconds()))
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
