package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cep-users/internal/metrics"
)

// HTTPMetrics counts responses by method, route template and status code.
// Unmatched routes are reported as "unmatched" to keep label cardinality bounded.
func HTTPMetrics(rec metrics.Recorder) gin.HandlerFunc {
	if rec == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordHTTPStatus(c.Request.Method, route, c.Writer.Status())
	}
}
