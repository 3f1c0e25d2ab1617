package stream

import (
	"context"
	"io"
	"iter"

	"github.com/shpandrak/shpanbind/internal/util"
)

// FromSeq adapts an iter.Seq to a Stream. The sequence is pulled lazily, one
// element per Emit. Pulling starts on Open, so the resulting stream can be
// materialized again after it was closed as long as the sequence itself is
// replayable.
func FromSeq[E any](seq iter.Seq[E]) Stream[E] {
	return NewStream(&seqStream[E]{seq: seq})
}

type seqStream[E any] struct {
	seq  iter.Seq[E]
	next func() (E, bool)
	stop func()
}

func (s *seqStream[E]) Open(_ context.Context) error {
	s.next, s.stop = iter.Pull(s.seq)
	return nil
}

func (s *seqStream[E]) Close() {
	if s.stop != nil {
		s.stop()
		s.next = nil
		s.stop = nil
	}
}

func (s *seqStream[E]) Emit(ctx context.Context) (E, error) {
	if ctx.Err() != nil {
		return util.DefaultValue[E](), ctx.Err()
	}
	e, ok := s.next()
	if !ok {
		return util.DefaultValue[E](), io.EOF
	}
	return e, nil
}
