/*
Package ports defines the driven ports (interfaces) for the avatar engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various rendering targets, catalog sources, and snapshot
storage backends.

# Key Interfaces

  - Avatar: The rendering sink that receives expression, motion, and gaze commands.
  - CatalogSource: Responsible for loading motion and expression catalogs (e.g., from Loam or Memory).
  - StateStore: Responsible for persisting and loading character Snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent character access.
*/
package ports
