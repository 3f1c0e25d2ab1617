package stream

import (
	"context"
	"fmt"

	"github.com/shpandrak/shpanbind"
	"github.com/shpandrak/shpanbind/internal/util"
)

// Map maps the source stream to a target stream using the provided mapper function.
func Map[SRC any, TGT any](
	src Stream[SRC],
	mapper shpanbind.Mapper[SRC, TGT],
) Stream[TGT] {
	return MapWithErrAndCtx(src, mapper.ToErrCtx())
}

// MapWithErr maps the source stream to a target stream using the provided mapper function.
func MapWithErr[SRC any, TGT any](
	src Stream[SRC],
	mapper shpanbind.MapperWithErr[SRC, TGT],
) Stream[TGT] {
	return MapWithErrAndCtx(src, mapper.ToErrCtx())
}

// MapWithErrAndCtx maps the source stream to a target stream using the provided mapper function.
func MapWithErrAndCtx[SRC any, TGT any](
	src Stream[SRC],
	mapper shpanbind.MapperWithErrAndCtx[SRC, TGT],
) Stream[TGT] {
	return newStream[TGT](
		func(ctx context.Context) (TGT, error) {
			v, err := src.provider(ctx)
			if err != nil {
				return util.DefaultValue[TGT](), err
			}
			mapped, err := mapper(ctx, v)
			if err != nil {
				// Wrapping errors, e.g. we don't want EOF accidentally returned from here
				return util.DefaultValue[TGT](), fmt.Errorf("map failed for Stream: %w", err)
			}
			return mapped, nil
		}, src.allLifecycleElement,
	)
}
