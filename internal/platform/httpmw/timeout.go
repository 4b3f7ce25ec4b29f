package httpmw

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds a check request to d, or to the caller's deadline when that
// is sooner. Schedulers usually send their own attempt deadline; a check must
// never outlive it. On expiry the client gets 503 "check timed out" and the
// request context is canceled so in-flight statements abort.
func Timeout(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}

	// TimeoutHandler always answers, even if the handler ignores ctx.Done().
	th := http.TimeoutHandler(next, d, "check timed out")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dl, ok := r.Context().Deadline(); ok && time.Until(dl) < d {
			ctx, cancel := context.WithDeadline(r.Context(), dl)
			defer cancel()
			http.TimeoutHandler(next, time.Until(dl), "check timed out").ServeHTTP(w, r.WithContext(ctx))
			return
		}
		th.ServeHTTP(w, r)
	})
}

// WithTimeout adapts Timeout(d, next) into a Middleware.
func WithTimeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler { return Timeout(d, next) }
}
