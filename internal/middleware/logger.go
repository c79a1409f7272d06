package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"promotion/pkg/log"
)

// Logger request logging middleware
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		fields := map[string]interface{}{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"latency": latency,
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		log.WithFields(fields).Info("Request processed")
	}
}
