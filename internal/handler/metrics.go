package handler

import (
	"fmt"
	"net/http"

	"github.com/arkforge/arkwatch/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "arkwatch_registrations_total %d\n", snap.Registrations)
	writeMetric(w, "arkwatch_registrations_rate_limited_total %d\n", snap.RegistrationsRateLimited)
	writeMetric(w, "arkwatch_emails_verified_total %d\n", snap.EmailsVerified)
	writeMetric(w, "arkwatch_accounts_deleted_total %d\n", snap.AccountsDeleted)

	writeMetric(w, "arkwatch_watches_created_total %d\n", snap.WatchesCreated)
	writeMetric(w, "arkwatch_watches_updated_total %d\n", snap.WatchesUpdated)
	writeMetric(w, "arkwatch_watches_deleted_total %d\n", snap.WatchesDeleted)
	writeMetric(w, "arkwatch_quota_rejections_total %d\n", snap.QuotaRejections)

	writeMetric(w, "arkwatch_auth_cache_hits_total %d\n", snap.AuthCacheHits)
	writeMetric(w, "arkwatch_auth_cache_misses_total %d\n", snap.AuthCacheMisses)
	writeMetric(w, "arkwatch_auth_failures_total %d\n", snap.AuthFailures)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
