package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupNone(t *testing.T) {
	p, err := Setup(context.Background(), Options{Exporter: ExporterNone})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.TracerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetupStdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	p, err := Setup(context.Background(), Options{
		ServiceName: "storefront-test",
		Exporter:    ExporterStdout,
		Writer:      &buf,
	})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "cart.add")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "cart.add")
	assert.Contains(t, buf.String(), "storefront-test")
}

func TestSetupUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), Options{Exporter: "zipkin"})
	assert.Error(t, err)
}
