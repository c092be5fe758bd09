package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ksalhab89/coupon-system-auth/internal/infra/telemetry"
)

// Metrics records per-route request latency. Routes are labeled by their
// registered pattern, not the raw path, to keep cardinality bounded.
func Metrics(metrics *telemetry.AuthMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
