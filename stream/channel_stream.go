package stream

import (
	"context"
	"io"
	"log/slog"

	"github.com/shpandrak/shpanbind/internal/util"
)

type channelStreamProvider[T any] struct {
	originalChannel <-chan T
}

func (cp channelStreamProvider[T]) Open(_ context.Context) error {
	return nil
}

func (cp channelStreamProvider[T]) Close() {
}

func (cp channelStreamProvider[T]) Emit(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		return util.DefaultValue[T](), ctx.Err()
	case msg, stillGood := <-cp.originalChannel:
		if !stillGood {
			slog.Debug("Stream channel closed externally")
			return util.DefaultValue[T](), io.EOF
		}
		return msg, nil
	}
}

// FromChannel adapts a receive channel to a Stream. The stream ends normally
// when the channel is closed. The channel can only be drained once, so the
// resulting stream should not be materialized more than once.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return NewStream[T](&channelStreamProvider[T]{
		originalChannel: ch,
	})
}
