package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/metrics"
)

// Metrics records request count and latency labelled by the matched route
// pattern, so ids in paths do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
