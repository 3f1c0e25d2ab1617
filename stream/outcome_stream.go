package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/shpandrak/shpanbind"
	"github.com/shpandrak/shpanbind/internal/util"
)

// Outcomes converts a stream that can fail into a stream that cannot.
// Every source element is delivered as a Success outcome, in source order.
// If the source stream terminates with an error (including a failure to open),
// that error is delivered as a single Failure outcome, the final element of the
// stream, and the stream then ends normally. A failed source is closed and is
// not read again for the rest of the materialization.
// Cancelling the consuming context is not a source failure: it terminates the
// outcome stream itself with the context error, without a Failure element.
func Outcomes[T any](src Stream[T]) Stream[shpanbind.Outcome[T]] {
	return NewStream[shpanbind.Outcome[T]](&outcomeStreamProvider[T]{src: src})
}

type outcomeStreamProvider[T any] struct {
	src       Stream[T]
	srcCancel context.CancelFunc
	opened    bool
	done      bool
}

func (p *outcomeStreamProvider[T]) Open(_ context.Context) error {
	// The source is opened lazily on the first Emit, so that a source open
	// failure surfaces as a Failure element instead of failing the outcome
	// stream itself
	p.opened = false
	p.done = false
	return nil
}

func (p *outcomeStreamProvider[T]) Close() {
	p.closeSource()
}

func (p *outcomeStreamProvider[T]) Emit(ctx context.Context) (o shpanbind.Outcome[T], err error) {
	if ctx.Err() != nil {
		return util.DefaultValue[shpanbind.Outcome[T]](), ctx.Err()
	}
	if p.done {
		return util.DefaultValue[shpanbind.Outcome[T]](), io.EOF
	}

	// A panicking source is a failing source. Recovering here keeps the
	// contract that the outcome stream itself only fails on cancellation
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.Error(fmt.Sprintf("Panic recovered: %v\n%s", rvr, debug.Stack()))
			p.done = true
			p.closeSource()
			if asErr, ok := rvr.(error); ok {
				o = shpanbind.Failure[T](fmt.Errorf("stream recovered error: %w", asErr))
			} else {
				o = shpanbind.Failure[T](fmt.Errorf("stream recovered error value: %v", rvr))
			}
			err = nil
		}
	}()

	if !p.opened {
		srcCancel, openErr := doOpenStream(ctx, p.src)
		if openErr != nil {
			if ctx.Err() != nil {
				return util.DefaultValue[shpanbind.Outcome[T]](), ctx.Err()
			}
			p.done = true
			return shpanbind.Failure[T](openErr), nil
		}
		p.opened = true
		p.srcCancel = srcCancel
	}

	v, emitErr := p.src.provider(ctx)
	if emitErr != nil {
		if emitErr == io.EOF {
			p.done = true
			p.closeSource()
			return util.DefaultValue[shpanbind.Outcome[T]](), io.EOF
		}
		if ctx.Err() != nil {
			return util.DefaultValue[shpanbind.Outcome[T]](), ctx.Err()
		}
		slog.Debug("Stream failed, delivering the error as a final outcome")
		p.done = true
		p.closeSource()
		return shpanbind.Failure[T](emitErr), nil
	}
	return shpanbind.Success(v), nil
}

func (p *outcomeStreamProvider[T]) closeSource() {
	if p.opened {
		doCloseSubStream(p.src)
		p.srcCancel()
		p.opened = false
	}
}
