package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware creates Gin middleware for request metrics and access logs
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		// route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(method, path, strconv.Itoa(statusCode), duration)
		logger.RequestLogger(method, c.Request.URL.Path, c.ClientIP(), c.GetHeader("User-Agent"), statusCode, duration)

		for _, err := range c.Errors {
			logger.Error("Request Error",
				"method", method,
				"path", path,
				"status_code", statusCode,
				"error", err.Error(),
			)
		}

		if duration > 5*time.Second {
			logger.Warn("Slow Request", "path", path, "duration_ms", duration.Milliseconds())
		}
	}
}
