package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartlead",
		Name:      "llm_adjustments_total",
		Help:      "AI score adjustment requests by outcome.",
	}, []string{"outcome"})
	metricCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartlead",
		Name:      "adjustment_cache_total",
		Help:      "Adjustment cache lookups by result.",
	}, []string{"result"})
)
