package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/simon/jobmux/internal/mux"
)

func TestParseHeaders(t *testing.T) {
	assert.Empty(t, parseHeaders(""))
	assert.Equal(t,
		map[string]string{"Authorization": "Basic abc", "x-team": "ml"},
		parseHeaders("Authorization=Basic abc, x-team = ml ,=skip,novalue"))
}

func TestExporterOptions(t *testing.T) {
	opts, err := exporterOptions(OTELConfig{Endpoint: "http://localhost:4318/otel/"})
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	opts, err = exporterOptions(OTELConfig{Endpoint: "https://collector:4318", Headers: "k=v"})
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	_, err = exporterOptions(OTELConfig{Endpoint: "not a url"})
	assert.Error(t, err)
}

func TestInitWithoutEndpoint(t *testing.T) {
	tel, err := Init(context.Background(), OTELConfig{})
	require.NoError(t, err)
	require.NotNil(t, tel.Metrics)
	tel.Shutdown(context.Background())
}

func TestReporterCountsTransitions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider)
	require.NoError(t, err)

	r := m.Reporter()
	r.Report(mux.Transition{Kind: mux.WindowCreated, Session: "s", Window: "gpu-0"})
	r.Report(mux.Transition{Kind: mux.CommandSent, Session: "s", Window: "gpu-0", Command: "ls"})
	r.Report(mux.Transition{Kind: mux.CommandSent, Session: "s", Window: "gpu-0", Command: "ls"})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok, metric.Name)
			for _, dp := range sum.DataPoints {
				totals[metric.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), totals["jobmux.transitions"])
	assert.Equal(t, int64(2), totals["jobmux.commands"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordTransition(context.Background(), mux.Transition{Kind: mux.SessionCreated})
}
