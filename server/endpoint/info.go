package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-srt/version"
)

var started = time.Now()

// Info adds the build and process uptime to the service name.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stamped(serviceName, gin.H{
			"build":  version.Get(),
			"uptime": time.Since(started).Truncate(time.Second).String(),
		}))
	}
}

func Version() gin.HandlerFunc {
	return func(c *gin.Context) { c.JSON(http.StatusOK, version.Get()) }
}
