package httpmw

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500 and logs the stack with the
// request id, if RequestID ran first.
func Recover(log *zap.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				fields := []zap.Field{
					zap.Any("panic", v),
					zap.ByteString("stack", debug.Stack()),
					zap.String("http.path", r.URL.Path),
				}
				if rid, ok := RequestIDFrom(r.Context()); ok {
					fields = append(fields, zap.String("request_id", rid))
				}
				log.Error("panic recovered", fields...)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// WithRecover adapts Recover(log, next) into a Middleware.
func WithRecover(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler { return Recover(log, next) }
}
