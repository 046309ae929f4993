package metrics

import (
	"net/http"
	"time"
)

// statusRecorder remembers the status a handler wrote. Handlers that never
// call WriteHeader answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// routeLabel is the matched ServeMux pattern, so every symbol shares one
// series. r.Pattern is only set when next is the mux itself.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}

// HTTPMiddleware counts requests, observes their latency and tracks the
// number in flight.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			rec := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)
			reg.RecordRequest(r.Method, routeLabel(r), rec.status, time.Since(start).Seconds())
		})
	}
}
