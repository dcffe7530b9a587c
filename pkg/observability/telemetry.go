package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.uber.org/zap"
)

// InitTelemetry initializes OpenTelemetry metrics with a Prometheus
// exporter over a private registry, tagged with the service name
func InitTelemetry(serviceName string) (*metric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return meterProvider, handler, nil
}

// InitLogger initializes the structured logger for the environment.
// Tests get a no-op logger so assertions are not buried in output.
func InitLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "production":
		logger, err = zap.NewProduction()
	case "test":
		logger = zap.NewNop()
	default:
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	zap.ReplaceGlobals(logger)

	return logger, nil
}

// Shutdown gracefully shuts down telemetry
func Shutdown(ctx context.Context, meterProvider *metric.MeterProvider, logger *zap.Logger) error {
	if meterProvider != nil {
		if err := meterProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown meter provider", zap.Error(err))
			return err
		}
	}

	if logger != nil {
		// Sync can fail on some stderr targets; nothing to do about it here
		_ = logger.Sync()
	}

	return nil
}
