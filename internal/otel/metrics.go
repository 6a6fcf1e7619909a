package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/simon/jobmux/internal/mux"
)

const meterName = "jobmux"

// Metrics holds the instruments for core transitions.
type Metrics struct {
	Transitions  metric.Int64Counter
	CommandsSent metric.Int64Counter
}

// NewMetrics creates the instruments from provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Transitions, err = meter.Int64Counter("jobmux.transitions",
		metric.WithDescription("Session and window transitions partitioned by kind"))
	if err != nil {
		return nil, err
	}

	m.CommandsSent, err = meter.Int64Counter("jobmux.commands",
		metric.WithDescription("Commands submitted to windows"),
		metric.WithUnit("{command}"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTransition counts one transition.
func (m *Metrics) RecordTransition(ctx context.Context, t mux.Transition) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("transition.kind", string(t.Kind)),
		attribute.String("session", t.Session),
		attribute.String("host", t.Host),
	)
	m.Transitions.Add(ctx, 1, attrs)
	if t.Kind == mux.CommandSent {
		m.CommandsSent.Add(ctx, 1, metric.WithAttributes(
			attribute.String("session", t.Session),
			attribute.String("window", t.Window),
		))
	}
}

// Reporter records every transition on m.
func (m *Metrics) Reporter() mux.Reporter {
	return mux.ReporterFunc(func(t mux.Transition) {
		m.RecordTransition(context.Background(), t)
	})
}
