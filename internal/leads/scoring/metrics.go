package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "smartlead",
		Subsystem: "scoring",
		Name:      "duration_seconds",
		Help:      "Time spent scoring a single lead, including the optional AI adjustment.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
	})
	metricScoringDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartlead",
		Subsystem: "scoring",
		Name:      "degraded_total",
		Help:      "Scoring runs that fell back to the rule-based score.",
	})
	metricClassifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartlead",
		Subsystem: "scoring",
		Name:      "classifications_total",
		Help:      "Scoring results by classification.",
	}, []string{"classification"})
	metricStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartlead",
		Subsystem: "scoring",
		Name:      "interaction_store_failures_total",
		Help:      "Interaction fetches that failed and contributed no engagement.",
	})
)
