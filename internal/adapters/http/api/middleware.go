package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amped/longevity/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error kind for endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next(rw, r)

		ms := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(rw.status), ms)
		if rw.status < http.StatusBadRequest {
			return
		}
		code := rw.code
		if code == "" {
			code = codeForStatus(rw.status)
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(rw.status))
	}
}

// limit rejects requests with 429 once the shared token bucket is empty.
func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			metrics.RecordRateLimited()
			s.fail(w, r, NewKind("api.rate_limit", ErrRateLimited))
			return
		}
		next(w, r)
	}
}

// codeForStatus names failures that did not go through fail, such as wrong
// methods answered with 404.
func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "bad_request"
	}
}

func severity(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case status == http.StatusTooManyRequests:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter captures the status and the API error code of a response.
type responseWriter struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// recordCode notes the error code on w when it is wrapped by MetricsMiddleware.
func recordCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseWriter); ok {
		rw.code = code
	}
}
