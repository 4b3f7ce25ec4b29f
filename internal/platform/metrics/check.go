package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CheckMetrics records row counts and run outcomes of staging/production checks.
// A nil *CheckMetrics is valid and records nothing.
type CheckMetrics struct {
	service string

	rows    metric.Int64Gauge
	runs    metric.Int64Counter
	latency metric.Float64Histogram
}

func NewCheckMetrics(service string) (*CheckMetrics, error) {
	m := otel.Meter("stagecheck/" + service)

	rows, err := m.Int64Gauge(
		"stagecheck.table.rows",
		metric.WithDescription("Row count observed for a checked table"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}
	runs, err := m.Int64Counter(
		"stagecheck.runs",
		metric.WithDescription("Completed checks by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := m.Float64Histogram(
		"stagecheck.duration",
		metric.WithDescription("Check duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckMetrics{
		service: service,
		rows:    rows,
		runs:    runs,
		latency: latency,
	}, nil
}

// RecordCount records the row count of table on side ("prod" or "stg").
func (c *CheckMetrics) RecordCount(ctx context.Context, side, table string, n int64) {
	if c == nil {
		return
	}
	c.rows.Record(ctx, n, metric.WithAttributes(
		attribute.String("service.name", c.service),
		attribute.String("stagecheck.side", side),
		attribute.String("stagecheck.table", table),
	))
}

// RecordRun records one finished check. outcome is "True", "False" or
// "error".
func (c *CheckMetrics) RecordRun(ctx context.Context, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("service.name", c.service),
		attribute.String("stagecheck.outcome", outcome),
	)
	c.runs.Add(ctx, 1, attrs)
	c.latency.Record(ctx, d.Seconds(), attrs)
}
