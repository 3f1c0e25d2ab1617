package bind

import "time"

// BindingInfo provides metadata about a binding's forwarding task.
// It is passed to observability hooks registered via [WithOnStart] and [WithOnDone].
type BindingInfo struct {
	Name string
}

type config struct {
	onStart func(BindingInfo)
	onDone  func(BindingInfo, BindingState, time.Duration)
}

// Option configures a [Group].
type Option func(*config)

// WithOnStart registers a hook invoked when each forwarding task begins executing.
// The hook runs inside the task's goroutine, before the source is materialized.
func WithOnStart(fn func(BindingInfo)) Option {
	return func(c *config) {
		c.onStart = fn
	}
}

// WithOnDone registers a hook invoked when each forwarding task finishes.
// The hook receives the terminal state and the task's wall-clock duration.
// The hook runs inside the task's goroutine after the forwarding loop returns.
func WithOnDone(fn func(BindingInfo, BindingState, time.Duration)) Option {
	return func(c *config) {
		c.onDone = fn
	}
}
