package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey struct{}

// With returns a copy of ctx carrying l. A nil l stores a no-op logger.
func With(ctx context.Context, l *zap.Logger) context.Context {
	if l == nil {
		l = zap.NewNop()
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored by With, else fallback, else a no-op logger.
// It never returns nil.
func From(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// WithTrace annotates l with the trace and span ids of the span in ctx, so
// the count lines of one check can be joined with its trace.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if ctx == nil {
		return l
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
		zap.Bool("trace_sampled", sc.IsSampled()),
	)
}
