// Package counter implements a counter which notifies listeners when its
// value crosses zero.
package counter

import (
	"sync"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Counter is an integer counter with a zero-crossing event. The zero value
// is ready to use. Listeners are invoked outside the lock, on the goroutine
// which caused the crossing.
type Counter struct {
	mu        sync.Mutex
	value     int
	listeners []func()
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Increment adds one to the counter
func (c *Counter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
}

// Decrement subtracts one from the counter. When the new value is zero,
// every listener registered with OnceZero is invoked and then forgotten.
func (c *Counter) Decrement() {
	c.mu.Lock()
	c.value--
	if c.value != 0 {
		c.mu.Unlock()
		return
	}
	listeners := c.listeners
	c.listeners = nil
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// IsZero returns true if the counter value is zero
func (c *Counter) IsZero() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value == 0
}

// Value returns the current counter value
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// OnceZero calls fn immediately if the counter is zero, otherwise on the
// next zero-crossing. fn is called at most once.
func (c *Counter) OnceZero(fn func()) {
	c.mu.Lock()
	if c.value == 0 {
		c.mu.Unlock()
		fn()
		return
	}
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}
