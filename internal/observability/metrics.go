// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Tournament metrics
	StrategiesEvaluated    prometheus.Counter
	StrategiesDisqualified *prometheus.CounterVec
	SurvivorsSelected      prometheus.Counter
	CycleDuration          prometheus.Histogram

	// Lifecycle metrics
	LifecycleTransitions *prometheus.CounterVec
	PaperTestingActive   prometheus.Gauge
	PromotedActive       prometheus.Gauge

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "strategy_lab"
	}

	return &Metrics{
		StrategiesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "strategies_evaluated_total",
			Help:      "Total number of strategies entered into tournaments",
		}),
		StrategiesDisqualified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "strategies_disqualified_total",
			Help:      "Total number of disqualified strategies by cause",
		}, []string{"cause"}),
		SurvivorsSelected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "survivors_selected_total",
			Help:      "Total number of strategies that survived a cycle",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tournament",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one full tournament cycle",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		LifecycleTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of promotion state transitions by target status",
		}, []string{"to_status"}),
		PaperTestingActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "paper_testing_active",
			Help:      "Number of strategies currently in paper testing",
		}),
		PromotedActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "promoted_active",
			Help:      "Number of strategies currently promoted",
		}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database errors by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
