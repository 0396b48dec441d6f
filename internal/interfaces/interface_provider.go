package interfaces

import (
	"github.com/google/wire"

	"github.com/janhq/notes-mcp/internal/interfaces/httpserver"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/routes"
)

// InterfacesProvider provides all interface layer dependencies
var InterfacesProvider = wire.NewSet(
	routes.RoutesProvider,
	httpserver.NewHTTPServer,
)
