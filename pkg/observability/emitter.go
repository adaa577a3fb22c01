package observability

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// Emitter fans computed results out to subscribers. Results are buffered
// on Emit and delivered on Flush, so a component can finish all of its
// state transitions before any listener observes them. Each subscriber is
// keyed by an opaque id; the returned unsubscribe func removes exactly the
// handle it was created for. Subscriber panics are isolated by the
// listener error boundary.
//
// An Emitter is not safe for concurrent use; like the components that own
// one, it relies on the engine serializing access.
type Emitter[T any] struct {
	logger  *slog.Logger
	scope   string
	subs    map[string]func(T)
	order   []string
	pending []T
}

// NewEmitter creates an emitter whose boundary logs under scope.
func NewEmitter[T any](logger *slog.Logger, scope string) *Emitter[T] {
	return &Emitter[T]{
		logger: logger,
		scope:  scope,
		subs:   make(map[string]func(T)),
	}
}

// SetLogger swaps the boundary logger.
func (e *Emitter[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Subscribe registers fn and returns its unsubscribe func. Unsubscribing
// twice is harmless.
func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	id := uuid.NewString()
	e.subs[id] = fn
	e.order = append(e.order, id)
	return func() {
		if _, ok := e.subs[id]; !ok {
			return
		}
		delete(e.subs, id)
		for i, v := range e.order {
			if v == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// Emit buffers a result for the next Flush.
func (e *Emitter[T]) Emit(v T) {
	e.pending = append(e.pending, v)
}

// Flush delivers every buffered result to every subscriber, in
// subscription order, then clears the buffer.
func (e *Emitter[T]) Flush() {
	if len(e.pending) == 0 {
		return
	}
	batch := e.pending
	e.pending = nil
	for _, v := range batch {
		v := v
		for _, id := range e.order {
			fn, ok := e.subs[id]
			if !ok {
				continue
			}
			domain.Guard(e.logger, e.scope, func() { fn(v) })
		}
	}
}

// Drop discards buffered results without delivering them.
func (e *Emitter[T]) Drop() {
	e.pending = nil
}

// Subscribers reports how many handles are registered.
func (e *Emitter[T]) Subscribers() int {
	return len(e.subs)
}
