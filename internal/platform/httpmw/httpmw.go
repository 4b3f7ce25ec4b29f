package httpmw

import (
	"net/http"
	"time"

	"stagecheck/internal/platform/logging"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Wrap adds OpenTelemetry spans + structured access logging.
func Wrap(service string, log *zap.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	accessLog := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		lg := logging.WithTrace(r.Context(), log).With(
			zap.String("http.method", r.Method),
			zap.String("http.path", r.URL.Path),
			zap.Int("http.status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)

		// RequestID runs inside Wrap but writes the header on the shared request.
		if rid := r.Header.Get("x-request-id"); rid != "" {
			lg = lg.With(zap.String("request_id", rid))
		}
		if ua := r.Header.Get("user-agent"); ua != "" {
			lg = lg.With(zap.String("user_agent", ua))
		}
		if sched := r.Header.Get("x-cloudscheduler-jobname"); sched != "" {
			lg = lg.With(zap.String("scheduler.job", sched))
		}
		if r.RemoteAddr != "" {
			lg = lg.With(zap.String("client.addr", r.RemoteAddr))
		}

		if sw.status >= http.StatusInternalServerError {
			lg.Warn("http")
			return
		}
		lg.Info("http")
	})

	// Wrap accessLog with otelhttp so Context() has an active span.
	return otelhttp.NewHandler(accessLog, service)
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithWrap adapts Wrap(service, log, next) into a Middleware.
func WithWrap(service string, log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler { return Wrap(service, log, next) }
}
