package otel

import (
	"context"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// checkDurationBuckets covers a check from a warm pool (sub-second) up to two
// 30s acquire waits plus the join count.
var checkDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// InitMetricsPrometheus wires an OTEL MeterProvider backed by a Prometheus scrape endpoint.
// It returns the /metrics handler and a shutdown function.
func InitMetricsPrometheus(
	ctx context.Context,
	serviceName string,
	extraAttrs ...attribute.KeyValue,
) (http.Handler, func(context.Context) error, error) {
	res, err := newResource(ctx, serviceName, extraAttrs...)
	if err != nil {
		return nil, nil, err
	}

	// Dedicated registry: only this process' collectors and OTEL instruments.
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "stagecheck.duration"},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: checkDurationBuckets,
			}},
		)),
	)
	otel.SetMeterProvider(mp)
	if err := runtime.Start(
		runtime.WithMinimumReadMemStatsInterval(10 * time.Second),
	); err != nil {
		return nil, nil, err
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), mp.Shutdown, nil
}
