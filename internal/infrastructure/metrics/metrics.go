package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Notes MCP metrics - using explicit registration
var (
	// HTTP request counter
	RequestsTotal *prometheus.CounterVec

	// Tool call counter and duration
	ToolCallsTotal *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec

	// External provider latency (object store, search, image, identity provider)
	ExternalProviderLatency *prometheus.HistogramVec

	// Note/sidecar pairs where only one half was applied
	PartialPairsTotal *prometheus.CounterVec

	// Login outcomes
	LoginsTotal *prometheus.CounterVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notes",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	ExternalProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notes",
			Subsystem: "mcp",
			Name:      "external_provider_latency_seconds",
			Help:      "External provider response time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	PartialPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "store",
			Name:      "partial_pairs_total",
			Help:      "Note/sidecar operations where only one object was written or deleted",
		},
		[]string{"operation"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notes",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Identity exchange outcomes",
		},
		[]string{"outcome"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(ExternalProviderLatency)
	prometheus.MustRegister(PartialPairsTotal)
	prometheus.MustRegister(LoginsTotal)
}

// RecordRequest records an HTTP request
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordExternalProviderLatency records external provider response time
func RecordExternalProviderLatency(provider, operation string, durationSec float64) {
	ExternalProviderLatency.WithLabelValues(provider, operation).Observe(durationSec)
}

// RecordPartialPair counts a create or delete that left one object of a pair behind.
func RecordPartialPair(operation string) {
	PartialPairsTotal.WithLabelValues(operation).Inc()
}

// RecordLogin counts identity exchange outcomes (granted, denied, failed).
func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}
