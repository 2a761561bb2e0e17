package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"wahook/internal/config"
)

func TestHeaderCarrier_SetAppendsAndOverwrites(t *testing.T) {
	c := headerCarrier{{Key: "a", Value: []byte("1")}}

	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Len(t, c, 2)
}

func TestTraceContextRoundTrip(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	prop := propagation.TraceContext{}
	carrier := headerCarrier(nil)
	prop.Inject(ctx, &carrier)
	require.NotEmpty(t, carrier.Get("traceparent"))

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), &carrier))
	assert.Equal(t, traceID, got.TraceID())
	assert.Equal(t, spanID, got.SpanID())
}

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(config.TracingConfig{}, "relay-service")
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))

	var nilProvider *Provider
	assert.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestResolveServiceName(t *testing.T) {
	assert.Equal(t, "from-config", resolveServiceName(config.TracingConfig{ServiceName: "from-config"}, "arg"))
	assert.Equal(t, "arg", resolveServiceName(config.TracingConfig{}, "arg"))
	assert.Equal(t, "relay-service", resolveServiceName(config.TracingConfig{}, ""))
}

func TestInjectHeadersKeepsExisting(t *testing.T) {
	headers := InjectHeaders(context.Background(), []kafka.Header{{Key: "x", Value: []byte("y")}})
	require.NotEmpty(t, headers)
	assert.Equal(t, "x", headers[0].Key)
}
