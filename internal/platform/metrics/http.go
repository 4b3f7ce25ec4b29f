package metrics

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPServerMetrics provides low-cardinality metrics for the check trigger server.
// Paths listed at construction are recorded as http.route; anything else is
// recorded as "other".
type HTTPServerMetrics struct {
	service string
	routes  map[string]struct{}

	inflight metric.Int64UpDownCounter
	rejected metric.Int64Counter
	errors   metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewHTTPServerMetrics(service string, routes ...string) (*HTTPServerMetrics, error) {
	m := otel.Meter("stagecheck/" + service)

	inflight, err := m.Int64UpDownCounter(
		"http.server.inflight",
		metric.WithDescription("In-flight trigger requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	rejected, err := m.Int64Counter(
		"http.server.rejected",
		metric.WithDescription("Trigger requests turned away (429, 503)"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	errors, err := m.Int64Counter(
		"http.server.errors",
		metric.WithDescription("HTTP 5xx responses other than rejections"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := m.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP server duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return &HTTPServerMetrics{
		service:  service,
		routes:   known,
		inflight: inflight,
		rejected: rejected,
		errors:   errors,
		latency:  latency,
	}, nil
}

func (h *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	if h == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingResponseWriter{ResponseWriter: w, status: http.StatusOK}

		route := "other"
		if _, ok := h.routes[r.URL.Path]; ok {
			route = r.URL.Path
		}
		base := metric.WithAttributes(
			attribute.String("service.name", h.service),
			attribute.String("http.route", route),
		)
		h.inflight.Add(r.Context(), 1, base)
		defer h.inflight.Add(r.Context(), -1, base)

		next.ServeHTTP(sw, r)

		attrs := metric.WithAttributes(
			attribute.String("service.name", h.service),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(sw.status)),
		)
		h.latency.Record(r.Context(), time.Since(start).Seconds(), attrs)

		switch {
		case sw.status == http.StatusTooManyRequests || sw.status == http.StatusServiceUnavailable:
			h.rejected.Add(r.Context(), 1, attrs)
		case sw.status >= 500:
			h.errors.Add(r.Context(), 1, attrs)
		}
	})
}

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

var _ http.ResponseWriter = (*statusCapturingResponseWriter)(nil)
