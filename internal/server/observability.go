// Observability middleware and endpoints for metrics and profiling
package server

import (
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infparquet/infparquet/internal/logger"
	"github.com/infparquet/infparquet/internal/metrics"
)

// statusRecorder captures the response status for metrics and logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// HTTPMetricsMiddleware creates an HTTP middleware for metrics and logging
func HTTPMetricsMiddleware(m *metrics.Metrics, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call the handler
			next.ServeHTTP(rec, r)

			// The route pattern is only known after routing
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}

			// Record metrics
			duration := time.Since(start)
			m.RecordHTTPRequest(route, r.Method, strconv.Itoa(rec.status), duration)

			// Log request
			log.LogHTTPRequest(r.Method, r.URL.Path, rec.status, duration)
		})
	}
}

// mountObservability mounts health, metrics, and profiling endpoints
func (s *Server) mountObservability(r chi.Router) {
	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"infparquet"}`))
	})

	// Readiness check endpoint
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if s.file == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"no metadata loaded"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// pprof endpoints for profiling
	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		r.Handle("/heap", pprof.Handler("heap"))
		r.Handle("/goroutine", pprof.Handler("goroutine"))
		r.Handle("/threadcreate", pprof.Handler("threadcreate"))
		r.Handle("/block", pprof.Handler("block"))
		r.Handle("/mutex", pprof.Handler("mutex"))
		r.Handle("/allocs", pprof.Handler("allocs"))
	})
}
