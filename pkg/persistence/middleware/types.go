package middleware

import "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain composes middlewares so the first one listed sees snapshots
// first on Save and last on Load.
func Chain(mws ...Middleware) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
