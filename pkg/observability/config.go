package observability

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Resource attribute keys describing how this notes deployment is wired.
const (
	ResourceToolTransport  = attribute.Key("notes.mcp.transport")
	ResourceStorageBackend = attribute.Key("notes.storage.backend")
	ResourceSearchIndex    = attribute.Key("notes.search.index")
)

// Config holds the OpenTelemetry settings of the notes service
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TracingEnabled bool
	MetricsEnabled bool
	OTLPEndpoint   string // host:port, or a URL whose scheme selects TLS
	OTLPHeaders    map[string]string
	SamplingRate   float64
	PIILevel       string // none|hashed|full

	// Deployment facts attached to every span and metric.
	ToolTransport  string
	StorageBackend string
	SearchIndex    string

	TraceBatchTimeout time.Duration
	MetricInterval    time.Duration
}

// DefaultConfig returns defaults with exporters switched off
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		OTLPEndpoint:      "otel-collector:4318",
		SamplingRate:      1.0,
		PIILevel:          "hashed",
		ToolTransport:     "streamable-http-stateless",
		TraceBatchTimeout: 5 * time.Second,
		MetricInterval:    15 * time.Second,
	}
}

// exporterEndpoint splits OTLPEndpoint into the host:port the exporters take
// and whether the connection is plaintext. Bare host:port is plaintext.
func (c Config) exporterEndpoint() (string, bool) {
	endpoint := strings.TrimSpace(c.OTLPEndpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), false
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), true
	}
	return endpoint, true
}

func (c Config) samplingRatio() float64 {
	switch {
	case c.SamplingRate < 0:
		return 0
	case c.SamplingRate > 1:
		return 1
	}
	return c.SamplingRate
}

func (c Config) resourceAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if c.ToolTransport != "" {
		attrs = append(attrs, ResourceToolTransport.String(c.ToolTransport))
	}
	if c.StorageBackend != "" {
		attrs = append(attrs, ResourceStorageBackend.String(c.StorageBackend))
	}
	if c.SearchIndex != "" {
		attrs = append(attrs, ResourceSearchIndex.String(c.SearchIndex))
	}
	return attrs
}
