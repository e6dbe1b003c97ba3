package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder receives one observation per request;
// observability.Metrics implements it.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, method, route string, status int, took time.Duration)
}

// GinMetrics records request count and latency by route template, so
// /tasks/:id stays one series. It runs inside Gin because only the router
// knows the template.
func GinMetrics(rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
