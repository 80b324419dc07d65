package handlers

import (
	"fmt"
	"net/http"

	"ecoflow/internal/engine/ecoflow"
)

type StatsSource interface {
	Stats() ecoflow.Stats
}

// MetricsHandler exports vendor call counters in the Prometheus text format.
type MetricsHandler struct {
	source StatsSource
}

func NewMetricsHandler(source StatsSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	stats := h.source.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP ecoflow_up Is the relay up\n")
	fmt.Fprintf(w, "# TYPE ecoflow_up gauge\n")
	fmt.Fprintf(w, "ecoflow_up 1\n")
	fmt.Fprintf(w, "# HELP ecoflow_vendor_requests_total Signed requests sent to the EcoFlow API\n")
	fmt.Fprintf(w, "# TYPE ecoflow_vendor_requests_total counter\n")
	fmt.Fprintf(w, "ecoflow_vendor_requests_total %d\n", stats.Requests)
	fmt.Fprintf(w, "# HELP ecoflow_vendor_retries_total Retried vendor requests\n")
	fmt.Fprintf(w, "# TYPE ecoflow_vendor_retries_total counter\n")
	fmt.Fprintf(w, "ecoflow_vendor_retries_total %d\n", stats.Retries)
	fmt.Fprintf(w, "# HELP ecoflow_vendor_failures_total Vendor calls that failed after retries\n")
	fmt.Fprintf(w, "# TYPE ecoflow_vendor_failures_total counter\n")
	fmt.Fprintf(w, "ecoflow_vendor_failures_total %d\n", stats.Failures)
}
