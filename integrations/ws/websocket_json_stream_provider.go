package ws

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/gorilla/websocket"
	"github.com/shpandrak/shpanbind/internal/util"
	"github.com/shpandrak/shpanbind/stream"
)

type wsJsonStreamProvider[T any] struct {
	wsFactory func(ctx context.Context) (*websocket.Conn, error)
	ws        *websocket.Conn
	done      chan struct{}
}

// FromWebSocket creates a stream of JSON messages read from a websocket
// connection. The factory is invoked on every materialization, so a binding
// group re-dials the socket on each visibility cycle.
// A normal closure by the peer ends the stream normally; any other read
// failure terminates it with an error, which a bound cell will surface next
// to its last delivered message.
func FromWebSocket[T any](wsFactory func(ctx context.Context) (*websocket.Conn, error)) stream.Stream[T] {
	return stream.NewStream(&wsJsonStreamProvider[T]{
		wsFactory: wsFactory,
	})
}

func (w *wsJsonStreamProvider[T]) Open(ctx context.Context) error {
	ws, err := w.wsFactory(ctx)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	w.ws = ws
	w.done = make(chan struct{})

	// Closing the connection is the only way to unblock a pending ReadJSON
	// when the consuming context goes away
	done := w.done
	go func() {
		select {
		case <-ctx.Done():
			if closeErr := ws.Close(); closeErr != nil {
				log.Printf("error closing websocket: %v", closeErr)
			}
		case <-done:
		}
	}()

	return nil
}

func (w *wsJsonStreamProvider[T]) Close() {
	if w.ws != nil {
		close(w.done)
		_ = w.ws.Close()
		w.ws = nil
	}
}

func (w *wsJsonStreamProvider[T]) Emit(ctx context.Context) (T, error) {
	if ctx.Err() != nil {
		return util.DefaultValue[T](), ctx.Err()
	}
	var ret T
	err := w.ws.ReadJSON(&ret)
	if err != nil {
		if ctx.Err() != nil {
			return util.DefaultValue[T](), ctx.Err()
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return util.DefaultValue[T](), io.EOF
		}
		return util.DefaultValue[T](), fmt.Errorf("error reading from websocket: %w", err)
	}
	return ret, nil
}
