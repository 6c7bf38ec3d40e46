package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	DocumentsSubmitted  prometheus.Counter
	EnrichmentsApplied  prometheus.Counter
	EnrichmentsRejected prometheus.Counter
	ReviewsOpened       prometheus.Counter
	Decisions           *prometheus.CounterVec
	DecisionDuration    prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DocumentsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_documents_submitted_total",
			Help: "Total number of documents submitted for verification",
		}),
		EnrichmentsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_enrichments_applied_total",
			Help: "Total number of enrichment callbacks applied",
		}),
		EnrichmentsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_enrichments_rejected_total",
			Help: "Total number of enrichment callbacks rejected for being out of order",
		}),
		ReviewsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_reviews_opened_total",
			Help: "Total number of records claimed for review",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustnet_decisions_total",
			Help: "Total number of recorded decisions by outcome",
		}, []string{"decision"}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustnet_decision_duration_seconds",
			Help:    "Latency of decision processing",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NewForTest builds Metrics against a private registry so parallel tests do
// not trip duplicate registration.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_documents_submitted_total",
			Help: "Total number of documents submitted for verification",
		}),
		EnrichmentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_enrichments_applied_total",
			Help: "Total number of enrichment callbacks applied",
		}),
		EnrichmentsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_enrichments_rejected_total",
			Help: "Total number of enrichment callbacks rejected for being out of order",
		}),
		ReviewsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustnet_reviews_opened_total",
			Help: "Total number of records claimed for review",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustnet_decisions_total",
			Help: "Total number of recorded decisions by outcome",
		}, []string{"decision"}),
		DecisionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustnet_decision_duration_seconds",
			Help:    "Latency of decision processing",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
