package bridge

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwantia/trainmap/pkg/log"
)

// requestLogger logs every request with its latency.
func requestLogger(logger log.LoggerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debug("%s %s %d %dms", c.Request.Method, path, c.Writer.Status(), time.Since(start).Milliseconds())
	}
}

// loopbackOnly rejects requests that do not originate from this machine.
func loopbackOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.RemoteIP()
		if ip != "127.0.0.1" && ip != "::1" {
			respondError(c, http.StatusForbidden, "bridge only accepts local requests", nil)
			return
		}
		c.Next()
	}
}
