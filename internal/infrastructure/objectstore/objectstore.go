package objectstore

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/note"
)

// Store is an object store that can also report its reachability.
type Store interface {
	note.ObjectStore
	Health(ctx context.Context) error
}

// New selects the backend named by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	if cfg.IsLocalStorage() {
		return NewLocalStore(cfg, log)
	}
	return NewS3Store(ctx, cfg, log)
}
