package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-srt/component"
)

// HealthChecker collects the current state of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// stamped is the body shared by the probe endpoints.
func stamped(service string, fields gin.H) gin.H {
	fields["service"] = service
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return fields
}

func collect(c *gin.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return nil
	}
	return checker(c.Request.Context())
}

// worst returns unhealthy if any component is, else degraded if any is.
func worst(hs []component.Health) component.HealthStatus {
	out := component.StatusHealthy
	for _, h := range hs {
		if h.Status == component.StatusUnhealthy {
			return h.Status
		}
		if h.Status == component.StatusDegraded {
			out = h.Status
		}
	}
	return out
}

// Health lists every component. Only an unhealthy component turns the
// answer into 503; an open breaker or a full backlog is reported as
// degraded with 200.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		hs := collect(c, checker)
		status := worst(hs)
		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, stamped(serviceName, gin.H{"status": status, "components": hs}))
	}
}

func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stamped(serviceName, gin.H{"status": "alive"}))
	}
}

// Readiness is 503 "not_ready" while a component is unhealthy.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if worst(collect(c, checker)) == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, stamped(serviceName, gin.H{"status": "not_ready"}))
			return
		}
		c.JSON(http.StatusOK, stamped(serviceName, gin.H{"status": "ready"}))
	}
}
