package httpmw

import (
	"net/http"
)

// InFlightLimit bounds the number of concurrent in-flight requests.
//
// When the limit is reached it returns 503 with Retry-After instead of
// queueing; a queued check would hold its caller past any useful deadline.
func InFlightLimit(max int, next http.Handler) http.Handler {
	if max <= 0 {
		return next
	}

	sem := make(chan struct{}, max)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Retry-After", "5")
			http.Error(w, "check already in progress", http.StatusServiceUnavailable)
		}
	})
}

// WithInFlightLimit adapts InFlightLimit(max, next) into a Middleware.
func WithInFlightLimit(max int) Middleware {
	return func(next http.Handler) http.Handler { return InFlightLimit(max, next) }
}
