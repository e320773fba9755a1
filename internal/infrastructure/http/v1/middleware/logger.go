package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"studentrecords/pkg/logger"
)

// Logger puts log into the request context and writes one access log line per request.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		entry := log.WithContext(c.Request.Context())
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		if status >= 500 {
			entry.Warnw("http request", fields...)
			return
		}
		entry.Infow("http request", fields...)
	}
}
