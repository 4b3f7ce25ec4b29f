package httpmw

import (
	"net/http"
	"strings"
)

// Methods rejects requests whose method is not in allowed with 405.
func Methods(allowed []string, next http.Handler) http.Handler {
	if len(allowed) == 0 {
		return next
	}
	set := make(map[string]struct{}, len(allowed))
	for _, m := range allowed {
		set[strings.ToUpper(m)] = struct{}{}
	}
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := set[r.Method]; !ok {
			w.Header().Set("Allow", allow)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithMethods adapts Methods(allowed, next) into a Middleware.
func WithMethods(allowed ...string) Middleware {
	return func(next http.Handler) http.Handler { return Methods(allowed, next) }
}
