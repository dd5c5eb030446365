package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SharesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridelink", Name: "shares_created_total", Help: "Total ride shares created"})
	ClaimsQueuedTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridelink", Name: "claims_queued_total", Help: "Total ride claims queued"})
	RidesAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridelink", Name: "rides_assigned_total", Help: "Total rides assigned via direct assignment or claim approval"})

	ClaimApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridelink", Name: "claim_approvals_total", Help: "Claim approval attempts by outcome"},
		[]string{"outcome"}, // won, lost
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridelink", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridelink",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Metrics records per-request counters and latency, keyed by route
// template so path cardinality stays bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
