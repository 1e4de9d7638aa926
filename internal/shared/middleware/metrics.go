package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/commercekit/payments/internal/shared/metrics"
)

// Metrics returns a middleware recording HTTP metrics for the payment
// API. The health and metrics endpoints themselves are not recorded;
// liveness checks would otherwise dominate the request counters.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Route pattern, not the raw path: order and shipment IDs must
		// not fan out into per-UUID label values.
		path := c.FullPath()
		if path == "" || path == "/health" || path == "/metrics" {
			c.Next()
			return
		}
		method := c.Request.Method
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		m.RecordHTTPRequest(method, path, c.Writer.Status(), time.Since(start))
	}
}
