package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/observability"
)

// Metrics serves the Prometheus text exposition of the process counters.
func Metrics(c *gin.Context) {
	m := observability.Current()
	if m == nil {
		c.String(http.StatusOK, "")
		return
	}
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		c.String(http.StatusInternalServerError, "metrics export failed")
		return
	}
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
