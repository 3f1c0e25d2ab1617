package jsonfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shpandrak/shpanbind/internal/util"
	"github.com/shpandrak/shpanbind/stream"
)

type jsonFeedStreamProvider[T any] struct {
	client   *http.Client
	url      string
	interval time.Duration
	extract  func(body []byte) (T, error)
	first    bool
}

// Poll creates an infinite stream that GETs url every interval and decodes
// each response body into T. The first fetch happens immediately on
// materialization. Any HTTP or decoding failure terminates the stream with
// that error, which is how a bound cell ends up holding the last good value
// next to the failure.
// A nil client means http.DefaultClient.
func Poll[T any](client *http.Client, url string, interval time.Duration) stream.Stream[T] {
	return stream.NewStream[T](&jsonFeedStreamProvider[T]{
		client:   orDefaultClient(client),
		url:      url,
		interval: interval,
		extract: func(body []byte) (T, error) {
			var v T
			if err := json.Unmarshal(body, &v); err != nil {
				return util.DefaultValue[T](), fmt.Errorf("failed to decode feed body: %w", err)
			}
			return v, nil
		},
	})
}

// PollPath is Poll for feeds where only one fragment of the document matters:
// each response is decoded generically and the value at the given JSONPath
// expression is emitted. A path that does not resolve is a feed failure.
func PollPath(client *http.Client, url string, path string, interval time.Duration) stream.Stream[any] {
	return stream.NewStream[any](&jsonFeedStreamProvider[any]{
		client:   orDefaultClient(client),
		url:      url,
		interval: interval,
		extract: func(body []byte) (any, error) {
			var doc any
			if err := json.Unmarshal(body, &doc); err != nil {
				return nil, fmt.Errorf("failed to decode feed body: %w", err)
			}
			v, err := jsonpath.Get(path, doc)
			if err != nil {
				return nil, fmt.Errorf("jsonpath %q failed for feed %s: %w", path, url, err)
			}
			return v, nil
		},
	})
}

// PollFloat64 is PollPath for numeric fragments: the extracted value is
// converted to float64, accepting JSON numbers and numeric strings.
func PollFloat64(client *http.Client, url string, path string, interval time.Duration) stream.Stream[float64] {
	return stream.MapWithErr(PollPath(client, url, path, interval), util.AnyToFloat64)
}

// PollTime is PollPath for timestamp fragments, RFC3339 strings included.
func PollTime(client *http.Client, url string, path string, interval time.Duration) stream.Stream[time.Time] {
	return stream.MapWithErr(PollPath(client, url, path, interval), util.AnyToTime)
}

func orDefaultClient(client *http.Client) *http.Client {
	if client == nil {
		return http.DefaultClient
	}
	return client
}

func (p *jsonFeedStreamProvider[T]) Open(_ context.Context) error {
	p.first = true
	return nil
}

func (p *jsonFeedStreamProvider[T]) Close() {
}

func (p *jsonFeedStreamProvider[T]) Emit(ctx context.Context) (T, error) {
	if p.first {
		p.first = false
	} else {
		timer := time.NewTimer(p.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return util.DefaultValue[T](), ctx.Err()
		case <-timer.C:
		}
	}
	return p.fetch(ctx)
}

func (p *jsonFeedStreamProvider[T]) fetch(ctx context.Context) (T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return util.DefaultValue[T](), fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return util.DefaultValue[T](), ctx.Err()
		}
		return util.DefaultValue[T](), fmt.Errorf("failed to fetch feed %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return util.DefaultValue[T](), fmt.Errorf("feed %s returned status %s", p.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return util.DefaultValue[T](), fmt.Errorf("failed to read feed body: %w", err)
	}
	return p.extract(body)
}
