package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "care_access_http_requests_total",
			Help: "Total de requests HTTP",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "care_access_http_request_duration_seconds",
			Help:    "Duración de requests HTTP en segundos",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	grantTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "care_access_grant_transitions_total",
			Help: "Transiciones de estado de access grants por evento",
		},
		[]string{"event"},
	)

	projectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "care_access_projections_total",
			Help: "Vistas calculadas por el projector, por tipo",
		},
		[]string{"view"},
	)
)

// RecordHTTPRequest registra un request HTTP terminado.
func RecordHTTPRequest(method string, statusCode int, durationSeconds float64) {
	status := "unknown"
	switch {
	case statusCode >= 200 && statusCode < 300:
		status = "2xx"
	case statusCode >= 300 && statusCode < 400:
		status = "3xx"
	case statusCode >= 400 && statusCode < 500:
		status = "4xx"
	case statusCode >= 500:
		status = "5xx"
	}

	httpRequestsTotal.WithLabelValues(method, status).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordGrantTransition cuenta un evento de dominio emitido (grant.approved, etc).
func RecordGrantTransition(event string) {
	grantTransitionsTotal.WithLabelValues(event).Inc()
}

// RecordProjection cuenta una vista calculada (no_access, restricted, full).
func RecordProjection(view string) {
	projectionsTotal.WithLabelValues(view).Inc()
}

// Handler expone el endpoint de Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
