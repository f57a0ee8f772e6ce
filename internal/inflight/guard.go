// ABOUTME: Per-key in-flight guard collapsing concurrent duplicate work
// ABOUTME: Used to deduplicate first-contact identity resolution calls

package inflight

import (
	"sync"
)

// call tracks one in-flight execution and its eventual result.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Guard collapses concurrent calls for the same key into a single
// execution. Later callers for an in-flight key wait for the first
// execution and receive its result. Once an execution completes the key is
// forgotten, so a subsequent call runs fresh.
type Guard[V any] struct {
	mu    sync.Mutex
	calls map[string]*call[V]
}

// NewGuard creates an empty Guard.
func NewGuard[V any]() *Guard[V] {
	return &Guard[V]{
		calls: make(map[string]*call[V]),
	}
}

// Do executes fn for key, or waits for an already-running execution of the
// same key and returns its result. The shared return reports whether the
// result came from another caller's execution.
func (g *Guard[V]) Do(key string, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, true, c.err
	}

	c := &call[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, false, c.err
}
