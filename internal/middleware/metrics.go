package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver receives one observation per request. *service.MetricsService satisfies it.
type HTTPObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
	CountHTTPRequest(method, path string, status int)
}

// Metrics returns middleware that captures request metrics. Long-lived stream routes are
// counted but not timed into the latency histogram.
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if observer == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if strings.HasSuffix(path, "/stream") {
			observer.CountHTTPRequest(c.Request.Method, path, c.Writer.Status())
			return
		}
		observer.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
