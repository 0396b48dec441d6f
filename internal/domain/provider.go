package domain

import (
	"github.com/google/wire"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/domain/imagegen"
	"github.com/janhq/notes-mcp/internal/domain/note"
	"github.com/janhq/notes-mcp/internal/domain/search"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	identity.NewService,
	note.NewService,
	search.NewService,
	imagegen.NewService,
	wire.Bind(new(search.NoteReader), new(*note.Service)),
)
