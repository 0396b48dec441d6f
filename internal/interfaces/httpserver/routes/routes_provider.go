package routes

import (
	"github.com/google/wire"

	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/routes/auth"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/routes/mcp"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	auth.NewAuthRoute,
	mcp.NewToolRuntime,
	mcp.NewNotesMCP,
	mcp.NewSearchMCP,
	mcp.NewImageMCP,
	mcp.NewMCPRoute,
)
