package domain

import "errors"

// ErrSnapshotNotFound is returned when a character ID cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrEngineDestroyed is returned when an operation is attempted on a destroyed engine.
var ErrEngineDestroyed = errors.New("engine destroyed")
