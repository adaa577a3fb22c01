package cli

import (
	"context"
	"log/slog"
	"time"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"
)

// watchCatalog hot-reloads the catalog into the running engine whenever
// the source reports a change. Live layers and a running sequence keep
// the definitions they started with; only new requests see the edit.
func watchCatalog(ctx context.Context, eng *avatar.Engine, src ports.CatalogSource, logger *slog.Logger) {
	w, ok := src.(ports.Watchable)
	if !ok {
		printSystemMessage("Catalog source does not support watching; /reload still works.")
		return
	}

	events, err := w.Watch(ctx)
	if err != nil {
		logger.Error("Watcher start failed", "err", err)
		printSystemMessage("Watcher start failed: %v", err)
		return
	}

	printSystemMessage("Watching the catalog for changes.")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-events:
				if !ok {
					return
				}
				// Delay slightly to ensure the file system is stable.
				time.Sleep(100 * time.Millisecond)
				if err := eng.Reload(ctx); err != nil {
					logger.Error("Reload failed", "id", id, "err", err)
					printSystemMessage("Change in '%s' did not apply: %v", id, err)
					continue
				}
				printSystemMessage("Catalog reloaded after change in '%s'.", id)
			}
		}
	}()
}
