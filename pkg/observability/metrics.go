package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Registerer receives the exporter's collector. Nil means the default
	// Prometheus registry.
	Registerer  prometheus.Registerer
	ServiceName string
	Environment string
}

// InitMetrics initializes the Prometheus metrics exporter and installs the
// resulting MeterProvider globally. The handler serves /metrics.
func InitMetrics(cfg MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	var exporterOpts []promexporter.Option
	handler := promhttp.Handler()
	if cfg.Registerer != nil {
		exporterOpts = append(exporterOpts, promexporter.WithRegisterer(cfg.Registerer))
		if g, ok := cfg.Registerer.(prometheus.Gatherer); ok {
			handler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
		}
	}

	exporter, err := promexporter.New(exporterOpts...)
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(ServiceResource(cfg.ServiceName, cfg.Environment)),
	)
	otel.SetMeterProvider(provider)

	return provider, handler, nil
}
