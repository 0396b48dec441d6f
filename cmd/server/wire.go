//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/notes-mcp/internal/domain"
	"github.com/janhq/notes-mcp/internal/infrastructure"
	"github.com/janhq/notes-mcp/internal/interfaces"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
