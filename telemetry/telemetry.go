package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"ourlife/backend/config"
)

// Init installs the global tracer provider used by the HTTP instrumentation.
// Spans are exported over OTLP/HTTP when an endpoint is configured. An exporter
// that cannot be created is fatal only when cfg.Required is set. The returned
// function flushes and stops the provider.
func Init(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "ourlife-api"
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attribute.String("service.name", name)))
	if err != nil {
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	}

	if cfg.Endpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		switch {
		case err != nil && cfg.Required:
			return nil, err
		case err != nil:
			log.Printf("Trace export disabled: %v", err)
		default:
			log.Printf("Exporting traces to %s", cfg.Endpoint)
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// sampler samples root spans at ratio, clamped to [0, 1], and follows the
// caller's decision for propagated traces.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
