package stream

import "context"

// Provider is what a data source implements to expose itself as a Stream.
// It combines the Lifecycle methods Open and Close with a pull method Emit
// that returns the next element.
type Provider[T any] interface {
	Lifecycle

	// Emit returns the next item in the stream, or an error.
	// When the stream is done, it should return io.EOF; the stream machinery
	// handles io.EOF and never propagates it to consumers.
	// Emit is never called concurrently from multiple goroutines.
	// It is the provider's responsibility to respect context cancellation for
	// blocking emissions; the machinery checks for cancellation between calls.
	Emit(ctx context.Context) (T, error)
}

// Lifecycle adds open/close hooks to a stream. A stream is opened exactly once
// per materialization. A well-behaved provider supports being materialized
// again after it was closed, e.g. when a binding group restarts the stream on
// a new visibility cycle.
type Lifecycle interface {
	Open(ctx context.Context) error
	Close()
}

type lifecycleWrapper struct {
	openFunc  func(ctx context.Context) error
	closeFunc func()
}

func NewLifecycle(openFunc func(ctx context.Context) error, closeFunc func()) Lifecycle {
	return &lifecycleWrapper{openFunc: openFunc, closeFunc: closeFunc}
}

func (s *lifecycleWrapper) Open(ctx context.Context) error {
	if s.openFunc != nil {
		return s.openFunc(ctx)
	}
	return nil
}

func (s *lifecycleWrapper) Close() {
	if s.closeFunc != nil {
		s.closeFunc()
	}
}
