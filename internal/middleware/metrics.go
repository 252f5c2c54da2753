package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pathfinder-edu/pathfinder-api/internal/service"
)

const scrapePath = "/metrics"

// Metrics records duration and count for every handled request. The scrape
// endpoint itself is excluded, and unmatched routes share one label so
// requests against random paths cannot grow the series set.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == scrapePath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
