package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"ourlife/backend/config"
)

func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func decision(s sdktrace.Sampler) sdktrace.SamplingDecision {
	return s.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       oteltrace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Name:          "sampler-test",
	}).Decision
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.RecordAndSample, decision(sampler(1)))
	assert.Equal(t, sdktrace.RecordAndSample, decision(sampler(2)))
	assert.Equal(t, sdktrace.Drop, decision(sampler(0)))
	assert.Equal(t, sdktrace.Drop, decision(sampler(-1)))
}

func TestInit_WithoutEndpoint(t *testing.T) {
	restoreGlobalProvider(t)

	shutdown, err := Init(context.Background(), config.TelemetryConfig{SampleRatio: 1})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, shutdown(context.Background()))
}

func TestInit_ExportsToCollector(t *testing.T) {
	restoreGlobalProvider(t)

	received := make(chan string, 1)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case received <- r.URL.Path:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	u, err := url.Parse(collector.URL)
	require.NoError(t, err)

	shutdown, err := Init(context.Background(), config.TelemetryConfig{
		ServiceName: "ourlife-test",
		Endpoint:    u.Host,
		Insecure:    true,
		Required:    true,
		SampleRatio: 1,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()

	// Shutdown flushes the batcher.
	require.NoError(t, shutdown(context.Background()))
	select {
	case path := <-received:
		assert.Equal(t, "/v1/traces", path)
	case <-time.After(5 * time.Second):
		t.Fatal("collector received no spans")
	}
}
