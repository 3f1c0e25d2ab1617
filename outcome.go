package shpanbind

// Outcome is the result of a single element production attempt from a source
// stream: either a value or the error that ended the source.
// Outcomes are what binding forwarders deliver to cells, so a failing source
// never aborts the consumer; the error travels as data instead.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Success wraps a value in a successful Outcome.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Failure wraps an error in a failed Outcome.
// The error is carried opaquely, it is never inspected or unwrapped here.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

// Failed reports whether the outcome carries an error.
func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

// Unpack returns the value and error as a regular Go pair.
func (o Outcome[T]) Unpack() (T, error) {
	return o.Value, o.Err
}
