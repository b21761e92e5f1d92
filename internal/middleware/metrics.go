package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
)

// Metrics returns middleware that captures request metrics using the provided service.
// Requests that match no route share one label so unknown paths cannot grow the series count.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
