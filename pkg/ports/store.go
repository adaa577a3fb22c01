package ports

import (
	"context"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// StateStore defines the interface for persisting engine snapshots (the
// emotional record, expression targets and idle motion of a character).
// This enables "stop & resume" across process restarts. The engine itself
// never requires persistence; stores are wired by the composition root.
type StateStore interface {
	// Save persists the snapshot for a character id.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a character id.
	// Returns domain.ErrSnapshotNotFound if none exists.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a character id.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
