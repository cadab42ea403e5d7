package middleware

import (
	"net/http"
	"time"

	"nutrikid-care-access/internal/platform/metrics"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Metrics registra contador y duración por request en Prometheus.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		metrics.RecordHTTPRequest(r.Method, ww.Status(), time.Since(start).Seconds())
	})
}
