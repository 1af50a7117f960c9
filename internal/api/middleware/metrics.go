package middleware

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/metrics"
)

// Metrics records request counts by status class and request latency.
// A nil collector turns the middleware into a pass-through.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			c.ObserveRequest(r.Method, rw.statusCode, time.Since(start))
		})
	}
}
