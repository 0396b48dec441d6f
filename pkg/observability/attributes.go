package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/notes-mcp/pkg/telemetry"
)

// Standard attribute keys
const (
	AttrUserEmail   = "notes.user"
	AttrUserDomain  = "notes.user.domain"
	AttrRequestID   = "request_id"
	AttrToolName    = "mcp.tool.name"
	AttrToolStatus  = "mcp.tool.status"
	AttrNoteID      = "notes.note_id"
	AttrResultCount = "notes.search.results"
	AttrFallback    = "notes.search.fallback"
)

// WithUserAttrs returns the caller attributes, with the email sanitized
func WithUserAttrs(email, domain string, sanitizer *telemetry.Sanitizer) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if email != "" && sanitizer != nil {
		attrs = append(attrs, attribute.String(AttrUserEmail, sanitizer.Email(email)))
	}
	if domain != "" {
		attrs = append(attrs, attribute.String(AttrUserDomain, domain))
	}
	return attrs
}

// AddUserAttrsToSpan adds caller attributes to the span
func AddUserAttrsToSpan(span trace.Span, email, domain string, sanitizer *telemetry.Sanitizer) {
	if span == nil {
		return
	}
	span.SetAttributes(WithUserAttrs(email, domain, sanitizer)...)
}

// WithToolAttrs returns attributes describing one tool call
func WithToolAttrs(toolName, status string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrToolName, toolName)}
	if status != "" {
		attrs = append(attrs, attribute.String(AttrToolStatus, status))
	}
	return attrs
}

// WithRequestID returns a request ID attribute
func WithRequestID(requestID string) attribute.KeyValue {
	return attribute.String(AttrRequestID, requestID)
}
