package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// StatsSource adds one named section to /metrics, such as the worker pool
// backlog or the task counts.
type StatsSource func() (name string, stats any)

const mib = 1 << 20

// Metrics is a JSON snapshot of the Go runtime plus every source. The OTLP
// exporters carry the same numbers as time series.
func Metrics(sources ...StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		body := gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"heap_mib": ms.HeapAlloc / mib,
				"sys_mib":  ms.Sys / mib,
				"gc_count": ms.NumGC,
			},
		}
		for _, src := range sources {
			name, stats := src()
			body[name] = stats
		}
		c.JSON(http.StatusOK, body)
	}
}
