package jsonfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shpandrak/shpanbind/stream"
	"github.com/stretchr/testify/require"
)

func TestPoll_DecodesEachFetch(t *testing.T) {
	type quote struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"symbol":"ACME","price":%d}`, 100+hits.Add(1))
	}))
	defer srv.Close()

	errStop := errors.New("enough")
	var got []quote
	err := Poll[quote](srv.Client(), srv.URL, time.Millisecond).
		ConsumeWithErr(context.Background(), func(q quote) error {
			got = append(got, q)
			if len(got) == 2 {
				return errStop
			}
			return nil
		})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, "ACME", got[0].Symbol)
	require.Equal(t, 101.0, got[0].Price)
	require.Equal(t, 102.0, got[1].Price)
}

// A failing fetch ends the feed, and through Outcomes it becomes the final
// failure element after the values that made it through
func TestPoll_ServerErrorEndsFeed(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"v":1}`)
			return
		}
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	outcomes, err := stream.Outcomes(Poll[map[string]any](srv.Client(), srv.URL, time.Millisecond)).
		Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.False(t, outcomes[0].Failed())
	require.Equal(t, map[string]any{"v": 1.0}, outcomes[0].Value)
	require.True(t, outcomes[1].Failed())
	require.ErrorContains(t, outcomes[1].Err, "returned status")
}

func TestPoll_DecodingFailureEndsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `this is not json`)
	}))
	defer srv.Close()

	_, err := Poll[map[string]any](srv.Client(), srv.URL, time.Millisecond).
		Collect(context.Background())
	require.ErrorContains(t, err, "failed to decode feed body")
}

func TestPollPath_ExtractsFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"temperature":21.5,"city":"Haifa"}}`)
	}))
	defer srv.Close()

	errStop := errors.New("enough")
	var got []any
	err := PollPath(srv.Client(), srv.URL, "$.data.temperature", time.Millisecond).
		ConsumeWithErr(context.Background(), func(v any) error {
			got = append(got, v)
			return errStop
		})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, []any{21.5}, got)
}

func TestPollPath_UnresolvablePathEndsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer srv.Close()

	_, err := PollPath(srv.Client(), srv.URL, "$.data.temperature", time.Millisecond).
		Collect(context.Background())
	require.ErrorContains(t, err, "jsonpath")
}

func TestPollFloat64_ConvertsNumbersAndNumericStrings(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"stars":1234}`)
			return
		}
		fmt.Fprint(w, `{"stars":"1235"}`)
	}))
	defer srv.Close()

	errStop := errors.New("enough")
	var got []float64
	err := PollFloat64(srv.Client(), srv.URL, "$.stars", time.Millisecond).
		ConsumeWithErr(context.Background(), func(v float64) error {
			got = append(got, v)
			if len(got) == 2 {
				return errStop
			}
			return nil
		})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, []float64{1234, 1235}, got)
}

func TestPollFloat64_NonNumericFragmentEndsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"stars":{"count":3}}`)
	}))
	defer srv.Close()

	_, err := PollFloat64(srv.Client(), srv.URL, "$.stars", time.Millisecond).
		Collect(context.Background())
	require.ErrorContains(t, err, "cannot be converted to float64")
}

func TestPollTime_ParsesRfc3339(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"datetime":"2025-03-04T13:30:00Z"}`)
	}))
	defer srv.Close()

	errStop := errors.New("enough")
	var got []time.Time
	err := PollTime(srv.Client(), srv.URL, "$.datetime", time.Millisecond).
		ConsumeWithErr(context.Background(), func(ts time.Time) error {
			got = append(got, ts)
			return errStop
		})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, []time.Time{time.Date(2025, 3, 4, 13, 30, 0, 0, time.UTC)}, got)
}

func TestPoll_CancellationDuringIntervalWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"v":1}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var fetched int
	err := Poll[map[string]any](srv.Client(), srv.URL, time.Hour).
		Consume(ctx, func(map[string]any) {
			fetched++
			cancel()
		})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, fetched)
}
