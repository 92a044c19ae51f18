package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "konditionald_http_requests_total",
			Help: "Total HTTP requests served by konditionald",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "konditionald_http_request_duration_seconds",
			Help:    "konditionald HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	sseClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "konditionald_sse_clients",
		Help: "Number of currently connected snapshot-stream clients",
	})
)

// InitMetrics registers this package's collectors. Call once at boot.
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(httpReqs, httpDur, sseClients)
}

// requestMetrics records route, method, and status for every request,
// the same shape as the teacher's telemetry.Middleware.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(sw.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
