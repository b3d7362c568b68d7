package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type metricsExporter interface {
	Handler() http.Handler
}

// MetricsHandler serves the Prometheus registry in text exposition format.
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler binds the handler to the exporter's registry.
func NewMetricsHandler(exporter metricsExporter) *MetricsHandler {
	return &MetricsHandler{exposition: exporter.Handler()}
}

// Prometheus godoc
// @Summary Prometheus metrics
// @Tags Dockerflow
// @Produce plain
// @Success 200 {string} string
// @Router /metrics [get]
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.exposition.ServeHTTP(c.Writer, c.Request)
}
