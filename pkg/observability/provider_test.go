package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/janhq/notes-mcp/pkg/telemetry"
)

func TestInitWithExportersDisabled(t *testing.T) {
	cfg := DefaultConfig("notes-mcp")
	cfg.PIILevel = "full"

	provider, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Equal(t, telemetry.PIILevelFull, provider.Sanitizer.Level())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestWithUserAttrs(t *testing.T) {
	s := telemetry.NewSanitizer(telemetry.PIILevelNone, "salt")
	attrs := WithUserAttrs("ann@corp.com", "corp.com", s)
	require.Len(t, attrs, 2)
	assert.Equal(t, "[REDACTED]", attrs[0].Value.AsString())
	assert.Equal(t, "corp.com", attrs[1].Value.AsString())

	assert.Empty(t, WithUserAttrs("", "", s))
	assert.Len(t, WithToolAttrs("create_note", ""), 1)
	assert.Len(t, WithToolAttrs("create_note", "success"), 2)
}

func TestExporterEndpoint(t *testing.T) {
	tests := []struct {
		raw       string
		endpoint  string
		plaintext bool
	}{
		{"otel-collector:4318", "otel-collector:4318", true},
		{"http://otel-collector:4318/", "otel-collector:4318", true},
		{"https://otlp.example.com", "otlp.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			endpoint, plaintext := Config{OTLPEndpoint: tt.raw}.exporterEndpoint()
			assert.Equal(t, tt.endpoint, endpoint)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestConfigSamplingAndResourceAttributes(t *testing.T) {
	assert.Equal(t, 0.0, Config{SamplingRate: -1}.samplingRatio())
	assert.Equal(t, 1.0, Config{SamplingRate: 4}.samplingRatio())
	assert.Equal(t, 0.25, Config{SamplingRate: 0.25}.samplingRatio())

	cfg := DefaultConfig("notes-mcp")
	cfg.StorageBackend = "s3"
	cfg.SearchIndex = "notes"
	attrs := cfg.resourceAttributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, ResourceToolTransport, attrs[0].Key)
	assert.Equal(t, "s3", attrs[1].Value.AsString())
	assert.Equal(t, "notes", attrs[2].Value.AsString())
}

func TestRecordToolCallUsesMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	provider, err := Init(context.Background(), DefaultConfig("notes-test"))
	require.NoError(t, err)
	provider.RecordToolCall(context.Background(), "create_note", "success")
	provider.RecordToolCall(context.Background(), "create_note", "success")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	var nilProvider *Provider
	nilProvider.RecordToolCall(context.Background(), "create_note", "error")
}
