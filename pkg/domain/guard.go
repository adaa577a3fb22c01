package domain

import "log/slog"

// Guard runs fn inside the listener error boundary: a panic is recovered
// and logged, never propagated. Every user-supplied callback (motion
// callbacks, subscribers, lifecycle hooks) is invoked through it so one
// faulty listener cannot abort a tick or starve its siblings.
func Guard(logger *slog.Logger, scope string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("listener panicked", "scope", scope, "panic", r)
			}
		}
	}()
	fn()
}
