package metrics

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCheckMetrics_NilIsNoop(t *testing.T) {
	var c *CheckMetrics
	c.RecordCount(context.Background(), "prod", "ft_d_market", 1)
	c.RecordRun(context.Background(), "True", time.Second)
}

func TestCheckMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	c, err := NewCheckMetrics("test")
	if err != nil {
		t.Fatalf("NewCheckMetrics() err=%v", err)
	}

	ctx := context.Background()
	c.RecordCount(ctx, "prod", "ft_d_market", 100)
	c.RecordCount(ctx, "stg", "ft_d_market", 101)
	c.RecordRun(ctx, "False", 250*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() err=%v", err)
	}

	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
			if m.Name == "stagecheck.table.rows" {
				g, ok := m.Data.(metricdata.Gauge[int64])
				if !ok {
					t.Fatalf("rows metric has type %T", m.Data)
				}
				if len(g.DataPoints) != 2 {
					t.Fatalf("expected 2 row datapoints, got %d", len(g.DataPoints))
				}
			}
		}
	}
	for _, name := range []string{"stagecheck.table.rows", "stagecheck.runs", "stagecheck.duration"} {
		if !seen[name] {
			t.Fatalf("metric %q not collected", name)
		}
	}
}
