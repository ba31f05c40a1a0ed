package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records duration and count for every HTTP request,
// labeled by route template so webhook and order-read traffic can be
// told apart on dashboards.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		HTTPRequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(elapsed)
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
	}
}
