package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrometheusHandler adapts the exporter's scrape handler to a gin route
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "metrics handler not initialized",
			})
			return
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
