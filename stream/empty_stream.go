package stream

import (
	"context"
	"io"

	"github.com/shpandrak/shpanbind/internal/util"
)

func Empty[T any]() Stream[T] {
	return newStream(func(ctx context.Context) (T, error) {
		return util.DefaultValue[T](), io.EOF
	}, nil)
}
