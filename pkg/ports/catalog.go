package ports

import (
	"context"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
)

// CatalogSource defines how the engine obtains its catalog of motions,
// expressions, conflicts, sequences and reaction rules. This decouples the
// core from the storage layer (built-in defaults, YAML files, Loam
// repositories).
type CatalogSource interface {
	// Load reads and assembles the full catalog.
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Watchable is implemented by catalog sources that can notify about
// backend changes, typically for hot-reload in dev mode. The channel
// carries the id of the changed document; consumers usually just reload.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}
