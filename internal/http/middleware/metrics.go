// Package middleware holds gin middleware specific to this service's HTTP
// surface.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "smartlead",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route template.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// RequestTimer records request latency per route template. Unmatched
// routes are grouped under "unmatched" to keep label cardinality bounded.
func RequestTimer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
