package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ExampleFromChannel() {
	type tstLogEvent struct {
		Level string
		Msg   string
	}

	ch := make(chan tstLogEvent, 3)
	go func() {
		ch <- tstLogEvent{Level: "info", Msg: "Oh yes1"}
		ch <- tstLogEvent{Level: "error", Msg: "Oh no1"}
		ch <- tstLogEvent{Level: "info", Msg: "Oh yes2"}
		ch <- tstLogEvent{Level: "error", Msg: "Oh no2"}

		// Closing the channel to signal that the stream is done
		close(ch)
	}()

	// Output:
	// [Oh no1 Oh no2]
	fmt.Println(Map(
		FromChannel(ch).
			Filter(func(e tstLogEvent) bool {
				return e.Level == "error"
			}),
		func(e tstLogEvent) string {
			return e.Msg
		},
	).MustCollect())

}

func TestFromChannel_EndsWhenChannelCloses(t *testing.T) {
	ch := make(chan int)
	go func() {
		ch <- 1
		ch <- 2
		close(ch)
	}()
	result, err := FromChannel(ch).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, result)
}

func TestFromChannel_ContextCancellation(t *testing.T) {
	ch := make(chan int)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := FromChannel(ch).Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
