package bind

import (
	"context"
	"sync"

	"github.com/shpandrak/shpanbind"
	"github.com/shpandrak/shpanbind/internal/util"
)

// Cell is an observable holder for the latest displayable value of a bound
// stream, together with the last error the stream produced.
//
// Outcomes are applied one at a time by a single forwarding task: a Success
// outcome replaces the value and clears any previous error, a Failure outcome
// keeps the last value on display and records the error next to it. Readers
// therefore always see the freshest data that was successfully produced, and
// the error state alongside it.
//
// All methods are safe for concurrent use. The expected shape is one writer
// (the binding's forwarding task) and any number of readers (the rendering
// layer), either polling Snapshot or blocking on Changed.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	err     error
	version uint64
	changed chan struct{}
}

// Snapshot is a coherent point-in-time view of a cell.
type Snapshot[T any] struct {
	Value   T
	Err     error
	Version uint64
}

// NewCell creates a cell displaying the given initial value, with no error
// and version 0.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value:   initial,
		changed: make(chan struct{}),
	}
}

// Apply folds a single outcome into the cell state and notifies subscribers.
// Success replaces the value and clears the error, Failure retains the value
// and sets the error. Every Apply bumps the version, including one that
// applies an equal value.
func (c *Cell[T]) Apply(o shpanbind.Outcome[T]) {
	c.mu.Lock()
	if o.Failed() {
		c.err = o.Err
	} else {
		c.value = o.Value
		c.err = nil
	}
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
}

// Value returns the current displayable value, the last successfully produced
// element (or the initial value if none was produced yet).
func (c *Cell[T]) Value() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Err returns the error of the last applied Failure outcome, or nil if the
// most recent outcome was a Success (or nothing was applied yet).
func (c *Cell[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cell[T]) HasError() bool {
	return c.Err() != nil
}

// Version returns the number of outcomes applied so far.
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Snapshot returns the value, error and version as one coherent read.
func (c *Cell[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot[T]{Value: c.value, Err: c.err, Version: c.version}
}

// Changed returns a channel that is closed on the next Apply. Each Apply
// replaces the channel, so subscribers must re-fetch it after every wakeup.
// To avoid missing updates, fetch the channel before reading the state it
// guards.
func (c *Cell[T]) Changed() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

// AwaitChange blocks until the cell version is greater than since, then
// returns the snapshot that satisfied it. It returns the context error if ctx
// ends first.
func (c *Cell[T]) AwaitChange(ctx context.Context, since uint64) (Snapshot[T], error) {
	for {
		// Fetch the notification channel before snapshotting, so an Apply
		// landing in between is never missed
		ch := c.Changed()
		snap := c.Snapshot()
		if snap.Version > since {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return util.DefaultValue[Snapshot[T]](), ctx.Err()
		case <-ch:
		}
	}
}
