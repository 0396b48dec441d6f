package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

const (
	serverName    = "notes-mcp"
	serverVersion = "1.0.0"
)

var allowedMCPMethods = map[string]bool{
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,
	"tools/list":                true,
	"tools/call":                true,
}

// MCPRoute serves the notes tools over streamable HTTP
type MCPRoute struct {
	mcpServer   *mcp.Server
	httpHandler http.Handler
}

// NewMCPRoute builds the MCP server and registers every tool on it
func NewMCPRoute(notesMCP *NotesMCP, searchMCP *SearchMCP, imageMCP *ImageMCP, runtime *ToolRuntime) *MCPRoute {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	notesMCP.RegisterTools(server, runtime)
	searchMCP.RegisterTools(server, runtime)
	imageMCP.RegisterTools(server, runtime)
	log.Info().Str("server", serverName).Msg("registered MCP tools")

	return &MCPRoute{
		mcpServer: server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

// RegisterRouter mounts the MCP endpoint behind the given auth middleware
func (route *MCPRoute) RegisterRouter(router gin.IRouter, auth gin.HandlerFunc) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		auth,
		route.serveMCP,
	)
	// Stateless server: no standalone SSE stream and no sessions to delete.
	router.GET("/mcp", methodNotAllowed)
	router.DELETE("/mcp", methodNotAllowed)
}

func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// The go-sdk handler rejects requests that do not accept both content types.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

func methodNotAllowed(reqCtx *gin.Context) {
	reqCtx.Header("Allow", http.MethodPost)
	reqCtx.AbortWithStatus(http.StatusMethodNotAllowed)
}

// MCPMethodGuard rejects JSON-RPC methods outside the allowed set before the
// request reaches the MCP server.
func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "failed to read MCP request body", "f10df80f-1651-4faa-8a75-3d91814d7990")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "empty MCP request body", "abf862e2-f2a8-4bd7-b1b7-56fc16647759")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid MCP request payload", "81f2eaae-8aa1-4569-95ec-c7a611fda0d0")
			return
		}

		if payload.Method == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing method field in MCP request", "7b3c9e5a-2f4d-4a1e-9c8b-1d5f3e7a9b2c")
			return
		}

		if !allowedMethods[payload.Method] {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unsupported MCP method: "+payload.Method, "6e5f62bb-a0fb-4146-969b-7d6dd1bbe8d6")
			return
		}

		reqCtx.Next()
	}
}
