package cell

import (
	"errors"
	"sync"
)

// ErrNilMutator is returned by Commit when no mutator is supplied.
var ErrNilMutator = errors.New("cell: mutator must not be nil")

// Change describes a committed mutation. Paths lists exactly the sub-paths
// whose values differ between Before and After.
type Change[S any] struct {
	Paths   []string
	Before  S
	After   S
	Version uint64
}

// Listener receives committed changes.
type Listener[S any] func(Change[S])

// Cell is a mutable value container that only changes through Commit. The
// pointer returned by New is the stable handle for the value; readers always
// observe copies.
type Cell[S any] struct {
	mu        sync.RWMutex
	value     S
	version   uint64
	nextID    uint64
	listeners []listenerEntry[S]
}

type listenerEntry[S any] struct {
	id uint64
	fn Listener[S]
}

// New seeds a cell with a deep copy of initial.
func New[S any](initial S) *Cell[S] {
	return &Cell[S]{value: Clone(initial)}
}

// Get returns a deep copy of the current value.
func (c *Cell[S]) Get() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Clone(c.value)
}

// Version counts commits that changed at least one path.
func (c *Cell[S]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Commit hands mutate a private draft of the current value. When mutate
// returns nil the draft becomes the new value and listeners are notified
// before Commit returns. An error or panic from mutate leaves the value
// untouched.
//
// The lock is not held while mutate runs, so a mutator may commit to this or
// any other cell. Concurrent commits resolve as last write wins.
func (c *Cell[S]) Commit(mutate func(draft *S) error) error {
	if mutate == nil {
		return ErrNilMutator
	}

	c.mu.RLock()
	draft := Clone(c.value)
	c.mu.RUnlock()

	if err := mutate(&draft); err != nil {
		return err
	}

	c.mu.Lock()
	before := c.value
	paths := Diff(before, draft)
	c.value = draft
	if len(paths) > 0 {
		c.version++
	}
	version := c.version
	listeners := make([]Listener[S], 0, len(c.listeners))
	for _, entry := range c.listeners {
		listeners = append(listeners, entry.fn)
	}
	c.mu.Unlock()

	if len(paths) == 0 || len(listeners) == 0 {
		return nil
	}
	for _, fn := range listeners {
		fn(Change[S]{
			Paths:   append([]string(nil), paths...),
			Before:  Clone(before),
			After:   Clone(draft),
			Version: version,
		})
	}
	return nil
}

// Subscribe registers fn for future changes and returns a function that
// removes it. Calling the returned function more than once is a no-op.
func (c *Cell[S]) Subscribe(fn Listener[S]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry[S]{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, entry := range c.listeners {
				if entry.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
