// Package otel exports jobmux transition metrics over OTLP/HTTP.
//
// If no endpoint is configured the instruments still work; nothing is
// exported.
package otel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "jobmux"

// Version is set by the caller from the linker-injected version.
var Version = "dev"

type OTELConfig struct {
	Endpoint string // OTLP base URL, e.g. "http://localhost:4318"
	Headers  string // Comma-separated key=value pairs
}

// Telemetry holds the meter provider and instruments.
type Telemetry struct {
	mp      *sdkmetric.MeterProvider
	Metrics *Metrics
}

// parseHeaders parses "key=value,key2=value2" as in OTEL_EXPORTER_OTLP_HEADERS.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	if raw == "" {
		return headers
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if idx := strings.IndexByte(pair, '='); idx > 0 {
			key := strings.TrimSpace(pair[:idx])
			val := strings.TrimSpace(pair[idx+1:])
			if key != "" {
				headers[key] = val
			}
		}
	}
	return headers
}

// exporterOptions turns the endpoint URL into exporter options. The SDK
// appends /v1/metrics to the base path.
func exporterOptions(cfg OTELConfig) ([]otlpmetrichttp.Option, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("otel: invalid endpoint URL %q: %w", cfg.Endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("otel: endpoint %q has no host", cfg.Endpoint)
	}
	basePath := strings.TrimRight(u.Path, "/")

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(u.Host),
		otlpmetrichttp.WithURLPath(basePath + "/v1/metrics"),
	}
	if u.Scheme == "http" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if headers := parseHeaders(cfg.Headers); len(headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(headers))
	}
	return opts, nil
}

// Init sets up the OTLP metric exporter when cfg.Endpoint is set.
func Init(ctx context.Context, cfg OTELConfig) (*Telemetry, error) {
	t := &Telemetry{}

	if cfg.Endpoint != "" {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(Version),
			),
			resource.WithHost(),
		)
		if err != nil {
			return nil, fmt.Errorf("otel resource: %w", err)
		}

		opts, err := exporterOptions(cfg)
		if err != nil {
			return nil, err
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otel metric exporter: %w", err)
		}
		t.mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
				sdkmetric.WithInterval(15*time.Second))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(t.mp)
	}

	metrics, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	t.Metrics = metrics
	return t, nil
}

// Shutdown flushes pending metrics. Short-lived CLI runs rely on this to
// export anything at all.
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t != nil && t.mp != nil {
		_ = t.mp.Shutdown(ctx)
	}
}
