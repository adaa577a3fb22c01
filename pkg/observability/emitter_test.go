package observability

import (
	"testing"
)

func TestEmitterBuffersUntilFlush(t *testing.T) {
	e := NewEmitter[int](nil, "test")
	var got []int
	e.Subscribe(func(v int) { got = append(got, v) })

	e.Emit(1)
	e.Emit(2)
	if len(got) != 0 {
		t.Fatalf("delivered before Flush: %v", got)
	}

	e.Flush()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}

	// Flush with nothing pending is a no-op.
	e.Flush()
	if len(got) != 2 {
		t.Errorf("re-flush re-delivered: %v", got)
	}
}

func TestEmitterUnsubscribeByIdentity(t *testing.T) {
	e := NewEmitter[string](nil, "test")
	var a, b int
	unsubA := e.Subscribe(func(string) { a++ })
	e.Subscribe(func(string) { b++ })

	unsubA()
	unsubA() // repeat is harmless

	e.Emit("x")
	e.Flush()
	if a != 0 {
		t.Errorf("unsubscribed handle fired %d times", a)
	}
	if b != 1 {
		t.Errorf("remaining handle fired %d times, want 1", b)
	}
	if e.Subscribers() != 1 {
		t.Errorf("subscribers = %d, want 1", e.Subscribers())
	}
}

func TestEmitterIsolatesPanics(t *testing.T) {
	e := NewEmitter[int](nil, "test")
	calls := 0
	e.Subscribe(func(int) { panic("bad listener") })
	e.Subscribe(func(int) { calls++ })

	e.Emit(7)
	e.Flush()
	if calls != 1 {
		t.Errorf("subscriber after panicking one fired %d times, want 1", calls)
	}
}

func TestEmitterDrop(t *testing.T) {
	e := NewEmitter[int](nil, "test")
	fired := false
	e.Subscribe(func(int) { fired = true })
	e.Emit(1)
	e.Drop()
	e.Flush()
	if fired {
		t.Error("dropped result was delivered")
	}
}
