package bind

import (
	"context"

	"github.com/shpandrak/shpanbind/stream"
)

// Binding pairs one source stream with the cell its outcomes are applied to.
// A Binding is a declaration: nothing runs until the group it belongs to is
// started, and each group start materializes the source again.
type Binding struct {
	name string
	run  func(ctx context.Context) error
}

// Assign declares that the outcomes of src should be applied to c.
// The forwarding loop wraps the source with Outcomes, so source errors land
// in the cell as Failure outcomes instead of escaping; the loop itself can
// only end by source exhaustion or by the group cancelling it.
func Assign[T any](src stream.Stream[T], c *Cell[T]) Binding {
	return Binding{
		run: func(ctx context.Context) error {
			return stream.Outcomes(src).Consume(ctx, c.Apply)
		},
	}
}

// AssignOptional declares a binding from a non-optional source to an optional
// cell: every element is delivered as a pointer to its own copy. The cell
// stays at its initial value (typically nil) until the first element arrives.
func AssignOptional[T any](src stream.Stream[T], c *Cell[*T]) Binding {
	return Assign(stream.Map(src, func(v T) *T {
		return &v
	}), c)
}

// Named gives the binding a diagnostic name, used by group hooks and status
// listings. Unnamed bindings get a positional name when the group starts.
func (b Binding) Named(name string) Binding {
	b.name = name
	return b
}
