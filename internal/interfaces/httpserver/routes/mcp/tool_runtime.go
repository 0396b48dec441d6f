package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/infrastructure/grant"
	"github.com/janhq/notes-mcp/internal/infrastructure/metrics"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
	"github.com/janhq/notes-mcp/pkg/observability"
	"github.com/janhq/notes-mcp/pkg/telemetry"
)

// ToolRuntime carries what every tool call needs besides its domain service:
// caller resolution, tracing and log sanitization.
type ToolRuntime struct {
	verifier  middlewares.GrantVerifier
	tracer    trace.Tracer
	sanitizer *telemetry.Sanitizer
	obs       *observability.Provider
}

// NewToolRuntime creates the shared tool runtime
func NewToolRuntime(issuer *grant.Issuer, provider *observability.Provider) *ToolRuntime {
	return &ToolRuntime{
		verifier:  issuer,
		tracer:    provider.Tracer,
		sanitizer: provider.Sanitizer,
		obs:       provider,
	}
}

// toolOutput is what a tool body produces. payload becomes the JSON text block
// and the structured content; content is placed in front of it.
type toolOutput struct {
	payload map[string]any
	content []mcp.Content
}

type toolFunc[In any] func(ctx context.Context, user *identity.User, in In) (*toolOutput, error)

// addTool registers a tool whose body runs with an authenticated caller. Failures
// are returned as IsError results carrying {success:false, error}.
func addTool[In any](server *mcp.Server, rt *ToolRuntime, tool *mcp.Tool, fn toolFunc[In]) {
	name := tool.Name
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		ctx = withRequestID(ctx, req)
		ctx, span := rt.tracer.Start(ctx, "mcp.tool "+name,
			trace.WithAttributes(observability.WithToolAttrs(name, "")...),
		)
		defer span.End()
		if requestID := platformerrors.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(observability.WithRequestID(requestID))
		}

		user, err := rt.resolveUser(ctx, req)
		if err != nil {
			rt.finish(ctx, span, name, "unauthorized", start, nil, err)
			return errorResult(ctx, err, nil), nil, nil
		}
		ctx = identity.WithUser(ctx, user)
		observability.AddUserAttrsToSpan(span, user.Email, user.Domain(), rt.sanitizer)

		out, err := fn(ctx, user, in)
		if err != nil {
			status := "error"
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypePartial) {
				status = "partial"
				metrics.RecordPartialPair(name)
			}
			rt.finish(ctx, span, name, status, start, user, err)
			var details map[string]any
			if out != nil {
				details = out.payload
			}
			return errorResult(ctx, err, details), nil, nil
		}

		rt.finish(ctx, span, name, "success", start, user, nil)
		return successResult(out), nil, nil
	})
}

func (rt *ToolRuntime) resolveUser(ctx context.Context, req *mcp.CallToolRequest) (*identity.User, error) {
	if user, ok := identity.FromContext(ctx); ok {
		return user, nil
	}
	if req != nil && req.Extra != nil && req.Extra.Header != nil {
		if token := middlewares.BearerToken(req.Extra.Header.Get("Authorization")); token != "" {
			user, err := rt.verifier.Verify(token)
			if err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeUnauthorized, "invalid or expired token", err, "")
			}
			return user, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeUnauthorized, "authentication required", nil, "")
}

func (rt *ToolRuntime) finish(ctx context.Context, span trace.Span, name, status string, start time.Time, user *identity.User, err error) {
	elapsed := time.Since(start)
	metrics.RecordToolCall(name, status, elapsed.Seconds())
	rt.obs.RecordToolCall(ctx, name, status)
	span.SetAttributes(observability.WithToolAttrs(name, status)...)

	event := log.Info()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		event = log.Warn().Err(err)
	}
	event = event.
		Str("tool", name).
		Str("status", status).
		Str("request_id", platformerrors.RequestIDFromContext(ctx)).
		Dur("duration", elapsed)
	if user != nil {
		event = event.Str("user", rt.sanitizer.Email(user.Email))
	}
	event.Msg("MCP tool call completed")
}

func withRequestID(ctx context.Context, req *mcp.CallToolRequest) context.Context {
	if platformerrors.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	if req != nil && req.Extra != nil && req.Extra.Header != nil {
		if requestID := req.Extra.Header.Get(middlewares.RequestIDHeader); requestID != "" {
			return platformerrors.WithRequestID(ctx, requestID)
		}
	}
	return ctx
}

func successResult(out *toolOutput) *mcp.CallToolResult {
	payload := map[string]any{"success": true}
	var content []mcp.Content
	if out != nil {
		for k, v := range out.payload {
			payload[k] = v
		}
		content = append(content, out.content...)
	}
	return &mcp.CallToolResult{
		Content:           append(content, &mcp.TextContent{Text: encodePayload(payload)}),
		StructuredContent: payload,
	}
}

func errorResult(ctx context.Context, err error, details map[string]any) *mcp.CallToolResult {
	payload := map[string]any{}
	for k, v := range details {
		payload[k] = v
	}
	payload["success"] = false
	payload["error"] = errorMessage(err)
	payload["error_type"] = string(platformerrors.TypeOf(err))
	if requestID := platformerrors.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: encodePayload(payload)}},
		StructuredContent: payload,
	}
}

// errorMessage keeps internal error chains out of tool output.
func errorMessage(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Message
	}
	return "internal error"
}

func encodePayload(payload map[string]any) string {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return `{"success":false,"error":"failed to encode result"}`
	}
	return string(data)
}

// toPayload flattens a domain result into a payload map using its JSON tags.
func toPayload(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

var schemaReflector = &jsonschema.Reflector{
	Anonymous:                 true,
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: true,
}

// inputSchema reflects a tool argument struct into the JSON schema map
// advertised in tools/list.
func inputSchema(args any) map[string]any {
	schema := schemaReflector.Reflect(args)
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
