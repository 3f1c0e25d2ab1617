package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStream_Filter(t *testing.T) {
	addOne := func(i int) int {
		return i + 1
	}

	require.Len(
		t,
		Just(1, 2, 3, 4, 5).
			Filter(func(i int) bool {
				return i > 2
			}).
			MustCollect(),
		3,
	)

	require.Len(
		t,
		Map(Just(1, 2, 3, 4, 5), addOne).
			Filter(func(i int) bool {
				return i > 2
			}).
			MustCollect(),
		4,
	)

}

func TestStream_Count(t *testing.T) {
	require.Equal(t, 5, Just(1, 2, 3, 4, 5).MustCount())
	require.Equal(t, 0, Empty[int]().MustCount())
}

func TestStream_Peek(t *testing.T) {
	var peeked []int
	result := Just(1, 2, 3).
		Peek(func(v int) {
			peeked = append(peeked, v)
		}).
		MustCollect()
	require.Equal(t, []int{1, 2, 3}, result)
	require.Equal(t, []int{1, 2, 3}, peeked)
}

// Peek is lazy, nothing runs until the stream is materialized
func TestStream_PeekIsLazy(t *testing.T) {
	var peeked []int
	s := Just(1, 2, 3).Peek(func(v int) {
		peeked = append(peeked, v)
	})
	require.Empty(t, peeked)
	s.MustConsume(func(int) {})
	require.Equal(t, []int{1, 2, 3}, peeked)
}

func TestStream_ConsumeWithErr_StopsPipeline(t *testing.T) {
	errStop := errors.New("enough")
	var seen []int
	err := Just(1, 2, 3, 4, 5).ConsumeWithErr(context.Background(), func(v int) error {
		seen = append(seen, v)
		if v == 3 {
			return errStop
		}
		return nil
	})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, []int{1, 2, 3}, seen)
}

func TestStream_WithAdditionalLifecycle(t *testing.T) {
	var events []string
	s := Just(1, 2).WithAdditionalLifecycle(NewLifecycle(
		func(_ context.Context) error {
			events = append(events, "open")
			return nil
		},
		func() {
			events = append(events, "close")
		},
	))

	require.Equal(t, []int{1, 2}, s.MustCollect())
	require.Equal(t, []string{"open", "close"}, events)

	// Materializing again runs the lifecycle again
	require.Equal(t, []int{1, 2}, s.MustCollect())
	require.Equal(t, []string{"open", "close", "open", "close"}, events)
}

func TestStream_OpenFailureClosesOpenedPrefix(t *testing.T) {
	var closedFirst bool
	s := Just(1, 2).
		WithAdditionalLifecycle(NewLifecycle(nil, func() {
			closedFirst = true
		})).
		WithAdditionalLifecycle(NewLifecycle(func(_ context.Context) error {
			return errors.New("second element refuses to open")
		}, nil))

	_, err := s.Collect(context.Background())
	require.Error(t, err)
	require.True(t, closedFirst)
}

func TestError_Stream(t *testing.T) {
	errBoom := errors.New("boom")
	_, err := Error[int](errBoom).Collect(context.Background())
	require.ErrorIs(t, err, errBoom)
}
