package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	ServiceName string
	Environment string
	Endpoint    string // OTLP gRPC receiver, host:port
	Insecure    bool
}

// ServiceResource describes the running service for traces and metrics.
func ServiceResource(serviceName, environment string) *resource.Resource {
	return resource.NewWithAttributes("",
		attribute.String("service.name", serviceName),
		attribute.String("deployment.environment", environment),
	)
}

// InitTracer installs a global TracerProvider exporting spans over OTLP gRPC.
// The returned function flushes and stops the exporter.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("observability: tracing endpoint is required")
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(ServiceResource(cfg.ServiceName, cfg.Environment)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
